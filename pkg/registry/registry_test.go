package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleRegistry() *ActivityRegistry {
	return &ActivityRegistry{
		Version: "1.0.0",
		Activities: []Activity{
			{
				ID:          "get-crop-advice",
				DisplayName: "Get Crop Advice",
				Category:    "advisor",
				TaskType:    "get-crop-advice",
			},
			{
				ID:          "check-price-alerts",
				DisplayName: "Check Price Alerts",
				Category:    "alerts",
				TaskType:    "check-price-alerts",
			},
		},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry", "activity-registry.json")

	assert.NoError(t, SaveRegistry(sampleRegistry(), path))

	loaded, err := LoadRegistry(path)
	assert.NoError(t, err)
	assert.Len(t, loaded.Activities, 2)
	assert.NotEmpty(t, loaded.LastUpdated)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestFindByTaskType(t *testing.T) {
	reg := sampleRegistry()

	activity, ok := reg.FindByTaskType("check-price-alerts")
	assert.True(t, ok)
	assert.Equal(t, "alerts", activity.Category)

	_, ok = reg.FindByTaskType("no-such-task")
	assert.False(t, ok)
}

func TestTaskTypes(t *testing.T) {
	assert.Equal(t, []string{"get-crop-advice", "check-price-alerts"}, sampleRegistry().TaskTypes())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ActivityRegistry)
		wantErr string
	}{
		{
			name:   "valid registry",
			mutate: func(r *ActivityRegistry) {},
		},
		{
			name:    "empty registry",
			mutate:  func(r *ActivityRegistry) { r.Activities = nil },
			wantErr: "no activities",
		},
		{
			name: "duplicate id",
			mutate: func(r *ActivityRegistry) {
				r.Activities = append(r.Activities, r.Activities[0])
			},
			wantErr: "duplicate activity ID",
		},
		{
			name:    "missing display name",
			mutate:  func(r *ActivityRegistry) { r.Activities[0].DisplayName = "" },
			wantErr: "DisplayName",
		},
		{
			name:    "missing task type",
			mutate:  func(r *ActivityRegistry) { r.Activities[1].TaskType = "" },
			wantErr: "TaskType",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := sampleRegistry()
			tt.mutate(reg)

			err := reg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoadShippedRegistry(t *testing.T) {
	reg, err := LoadRegistry("../../configs/activity-registry.json")
	if err != nil {
		t.Skipf("shipped registry not present: %v", err)
	}

	assert.NoError(t, reg.Validate())
	assert.Len(t, reg.Activities, 11)

	_, ok := reg.FindByTaskType("get-crop-advice")
	assert.True(t, ok)
}
