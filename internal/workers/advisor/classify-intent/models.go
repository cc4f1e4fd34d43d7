package classifyintent

type Input struct {
	Question     string `json:"question"`
	SelectedCrop string `json:"selectedCrop,omitempty"`
}

type Output struct {
	Intent     string         `json:"intent"`
	Scores     map[string]int `json:"scores"`
	Crop       string         `json:"crop"`
	Matches    []string       `json:"cropMatches,omitempty"`
	Normalized string         `json:"normalized"`
}
