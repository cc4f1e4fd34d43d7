package getcropadvice

type Input struct {
	Question     string `json:"question"`
	SelectedCrop string `json:"selectedCrop"`
	UserID       string `json:"userId,omitempty"`
	Voice        bool   `json:"voice,omitempty"` // request came from the voice surface
}

type Output struct {
	Reply          string `json:"reply"`
	SpeakableReply string `json:"speakableReply,omitempty"` // set for voice requests
	Crop           string `json:"crop"`
	Intent         string `json:"intent,omitempty"`
	Fallback       bool   `json:"fallback"`
	FallbackReason string `json:"fallbackReason,omitempty"`
}
