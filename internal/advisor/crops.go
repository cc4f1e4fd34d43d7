package advisor

import "strings"

// CropMeta holds the static reference data for one crop.
type CropMeta struct {
	Icon       string  `json:"icon"`
	Season     string  `json:"season"`
	Harvest    string  `json:"harvest"`
	BasePrice  float64 `json:"basePrice"`  // rupees per quintal
	Volatility float64 `json:"volatility"` // 0..1
}

// CropContext is the result of resolving which crop a question is about.
type CropContext struct {
	Crop    string   `json:"crop"`
	Meta    CropMeta `json:"meta"`
	Tip     string   `json:"tip"`
	Matches []string `json:"matches,omitempty"` // every crop named in the question, declaration order
}

// Catalog is an immutable crop lookup table. It is injected into the
// workers at construction so tests can run against synthetic tables.
type Catalog struct {
	names []string
	meta  map[string]CropMeta
	tips  map[string]string
}

// defaultMeta is substituted when a crop has no metadata entry.
var defaultMeta = CropMeta{
	Icon:       "🌱",
	Season:     "varies",
	Harvest:    "varies",
	BasePrice:  2000,
	Volatility: 0.1,
}

// NewCatalog builds a catalog from explicit tables. Declaration order of
// names decides which crop wins when a question mentions several.
func NewCatalog(names []string, meta map[string]CropMeta, tips map[string]string) *Catalog {
	return &Catalog{names: names, meta: meta, tips: tips}
}

// DefaultCatalog returns the fixed ten-crop mandi table.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		[]string{"Wheat", "Rice", "Onion", "Potato", "Tomato", "Cotton", "Sugarcane", "Maize", "Soybean", "Mustard"},
		map[string]CropMeta{
			"Wheat":     {Icon: "🌾", Season: "Rabi (Oct-Mar)", Harvest: "March-April", BasePrice: 2200, Volatility: 0.08},
			"Rice":      {Icon: "🍚", Season: "Kharif (Jun-Nov)", Harvest: "October-November", BasePrice: 2100, Volatility: 0.10},
			"Onion":     {Icon: "🧅", Season: "Rabi & Kharif", Harvest: "December-January", BasePrice: 1800, Volatility: 0.35},
			"Potato":    {Icon: "🥔", Season: "Rabi (Oct-Feb)", Harvest: "January-February", BasePrice: 1200, Volatility: 0.25},
			"Tomato":    {Icon: "🍅", Season: "Year-round", Harvest: "60-70 days after transplant", BasePrice: 1500, Volatility: 0.40},
			"Cotton":    {Icon: "🌱", Season: "Kharif (Apr-Oct)", Harvest: "October-December", BasePrice: 6200, Volatility: 0.12},
			"Sugarcane": {Icon: "🎋", Season: "Year-round", Harvest: "December-March", BasePrice: 340, Volatility: 0.05},
			"Maize":     {Icon: "🌽", Season: "Kharif (Jun-Oct)", Harvest: "September-October", BasePrice: 1900, Volatility: 0.15},
			"Soybean":   {Icon: "🫘", Season: "Kharif (Jun-Oct)", Harvest: "September-October", BasePrice: 4300, Volatility: 0.18},
			"Mustard":   {Icon: "🌼", Season: "Rabi (Oct-Mar)", Harvest: "February-March", BasePrice: 5400, Volatility: 0.14},
		},
		map[string]string{
			"Wheat":   "Hold stock 4-6 weeks after harvest if storage is available; prices usually firm up once the arrival rush ends.",
			"Rice":    "Grade and sell fine varieties separately; premium varieties fetch 15-20% over common paddy in most mandis.",
			"Onion":   "Onion prices swing hard; sell in 2-3 lots across the season instead of one bulk sale.",
			"Potato":  "Cold-store early and watch the February glut; off-season release usually beats harvest-time rates.",
			"Cotton":  "Track international lint prices before selling; ginners pay more when export demand is strong.",
			"Soybean": "Watch soy meal export news; crusher demand moves local rates within days.",
			"Mustard": "Sell before the summer oil-mill slowdown; late-season carryover rarely pays.",
		},
	)
}

// Names returns the crop names in declaration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Meta returns the metadata for a crop, substituting the generic default
// record for unknown names.
func (c *Catalog) Meta(crop string) CropMeta {
	if m, ok := c.meta[crop]; ok {
		return m
	}
	return defaultMeta
}

// Tip returns the seasonal-strategy tip for a crop, or "" when none exists.
func (c *Catalog) Tip(crop string) string {
	return c.tips[crop]
}

// ResolveCropContext scans the lowercased question for any known crop
// name as a substring. A named crop overrides the caller-selected one;
// when several are named, the first in declaration order is primary and
// all of them are surfaced in Matches. No match keeps selected.
func (c *Catalog) ResolveCropContext(question, selected string) CropContext {
	lower := strings.ToLower(question)

	var matches []string
	for _, name := range c.names {
		if strings.Contains(lower, strings.ToLower(name)) {
			matches = append(matches, name)
		}
	}

	crop := selected
	if len(matches) > 0 {
		crop = matches[0]
	}

	return CropContext{
		Crop:    crop,
		Meta:    c.Meta(crop),
		Tip:     c.Tip(crop),
		Matches: matches,
	}
}
