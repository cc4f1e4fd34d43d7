package advisor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Template Tests
// ==========================

func TestRenderFallback_EveryIntentNamesCropAndHarvest(t *testing.T) {
	catalog := DefaultCatalog()
	meta := catalog.Meta("Wheat")
	tip := catalog.Tip("Wheat")

	for _, intent := range Intents() {
		t.Run(string(intent), func(t *testing.T) {
			out := RenderFallback(intent, "Wheat", meta, tip, "some question")
			assert.Contains(t, out, "Wheat")
			assert.Contains(t, out, meta.Harvest)
		})
	}
}

func TestRenderFallback_Deterministic(t *testing.T) {
	meta := DefaultCatalog().Meta("Onion")

	a := RenderFallback(IntentPrice, "Onion", meta, "", "onion bhav")
	b := RenderFallback(IntentPrice, "Onion", meta, "", "onion bhav")
	assert.Equal(t, a, b)
}

func TestRenderFallback_UsesBoldMarkupAndBullets(t *testing.T) {
	meta := DefaultCatalog().Meta("Rice")

	out := RenderFallback(IntentPrice, "Rice", meta, "", "rice rate")
	assert.Contains(t, out, "**")
	assert.Contains(t, out, "•")
}

func TestRenderFallback_MSPCarriesHelpline(t *testing.T) {
	meta := DefaultCatalog().Meta("Wheat")

	out := RenderFallback(IntentMSP, "Wheat", meta, "", "msp kya hai")
	assert.Contains(t, out, "1800-180-1551")
}

func TestRenderFallback_StoragePremiumBranch(t *testing.T) {
	catalog := DefaultCatalog()

	// Onion and Potato are perishable and get the cold-storage branch.
	for _, crop := range []string{"Onion", "Potato"} {
		out := RenderFallback(IntentStorage, crop, catalog.Meta(crop), "", "storage")
		assert.Contains(t, out, "30-50% premium")
		assert.Contains(t, out, "cold storage")
	}

	// Everything else gets the godown branch.
	out := RenderFallback(IntentStorage, "Wheat", catalog.Meta("Wheat"), "", "storage")
	assert.Contains(t, out, "10-20% premium")
	assert.NotContains(t, out, "30-50% premium")
}

func TestRenderFallback_WaterBranchesPerCrop(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		crop     string
		fragment string
	}{
		{crop: "Rice", fragment: "standing water"},
		{crop: "Sugarcane", fragment: "drip irrigation"},
		{crop: "Wheat", fragment: "4-6 irrigations"},
		{crop: "Cotton", fragment: "drought-tolerant"},
		{crop: "Potato", fragment: "light frequent irrigation"},
		{crop: "Maize", fragment: "critical growth stages"},
	}

	for _, tt := range tests {
		t.Run(tt.crop, func(t *testing.T) {
			out := RenderFallback(IntentWater, tt.crop, catalog.Meta(tt.crop), "", "pani")
			assert.Contains(t, out, tt.fragment)
		})
	}
}

func TestRenderFallback_GeneralEmbedsVerbatimQuestion(t *testing.T) {
	meta := DefaultCatalog().Meta("Wheat")

	question := "Tell me something about farming near Indore"
	out := RenderFallback(IntentGeneral, "Wheat", meta, "", question)
	assert.Contains(t, out, question)

	// Empty question is embedded literally too.
	out = RenderFallback(IntentGeneral, "Wheat", meta, "", "")
	assert.Contains(t, out, "\"\"")
}

func TestRenderFallback_TipAppendedWhenPresent(t *testing.T) {
	catalog := DefaultCatalog()

	out := RenderFallback(IntentSell, "Onion", catalog.Meta("Onion"), catalog.Tip("Onion"), "kab beche")
	assert.Contains(t, out, catalog.Tip("Onion"))

	out = RenderFallback(IntentSell, "Tomato", catalog.Meta("Tomato"), catalog.Tip("Tomato"), "kab beche")
	assert.NotContains(t, out, "💡")
}

// ==========================
// End-to-End Scenario Tests
// ==========================

func TestScenario_WheatMSP(t *testing.T) {
	catalog := DefaultCatalog()
	question := "What is the MSP for wheat and how do I register?"

	ctx := catalog.ResolveCropContext(question, "Rice")
	assert.Equal(t, "Wheat", ctx.Crop)

	intent := Classify(Normalize(question))
	assert.Equal(t, IntentMSP, intent)

	out := RenderFallback(intent, ctx.Crop, ctx.Meta, ctx.Tip, question)
	assert.Contains(t, out, "Wheat")
	assert.Contains(t, out, "1800-180-1551")
}

func TestScenario_EmptyQuestion(t *testing.T) {
	catalog := DefaultCatalog()

	normalized := Normalize("")
	assert.Equal(t, "", normalized)

	intent := Classify(normalized)
	assert.Equal(t, IntentGeneral, intent)

	ctx := catalog.ResolveCropContext("", "Wheat")
	out := RenderFallback(intent, ctx.Crop, ctx.Meta, ctx.Tip, "")
	assert.Contains(t, out, "Wheat")
}

func TestScenario_KabBecheOnion(t *testing.T) {
	catalog := DefaultCatalog()
	question := "kab beche onion"

	ctx := catalog.ResolveCropContext(question, "Potato")
	assert.Equal(t, "Onion", ctx.Crop)

	intent := Classify(Normalize(question))
	assert.Equal(t, IntentSell, intent)

	out := RenderFallback(intent, ctx.Crop, ctx.Meta, ctx.Tip, question)
	assert.Contains(t, out, "Onion")
	assert.False(t, strings.Contains(out, "Potato"))
}

// ==========================
// Speech Cleanup Tests
// ==========================

func TestSpeakableText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips bold markers",
			input:    "**Wheat Mandi Price**",
			expected: "Wheat Mandi Price",
		},
		{
			name:     "spells out currency and unit",
			input:    "around **₹2200/quintal** today",
			expected: "around rupees 2200 per quintal today",
		},
		{
			name:     "drops bullets and collapses whitespace",
			input:    "• first line\n• second  line",
			expected: "first line second line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SpeakableText(tt.input))
		})
	}
}

func BenchmarkRenderFallback(b *testing.B) {
	catalog := DefaultCatalog()
	meta := catalog.Meta("Wheat")
	tip := catalog.Tip("Wheat")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		RenderFallback(IntentPrice, "Wheat", meta, tip, "wheat bhav")
	}
}
