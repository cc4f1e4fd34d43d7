package checkpricealerts

import "agrimandi-workers/internal/models"

type Input struct {
	UserID string `json:"userId,omitempty"` // empty means sweep every active threshold
}

type Output struct {
	Checked   int                     `json:"checked"`
	Triggered []models.TriggeredAlert `json:"triggered"`
	Skipped   int                     `json:"skipped"` // invalid rows or missing latest price
}

// thresholdSchema validates rows before evaluation; bad rows are skipped
// rather than failing the whole sweep.
var thresholdSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"userId", "crop", "threshold", "direction"},
	"properties": map[string]interface{}{
		"userId":    map[string]interface{}{"type": "string", "minLength": 1},
		"crop":      map[string]interface{}{"type": "string", "minLength": 1},
		"threshold": map[string]interface{}{"type": "number", "minimum": 1},
		"direction": map[string]interface{}{"type": "string", "enum": []interface{}{"above", "below"}},
	},
}
