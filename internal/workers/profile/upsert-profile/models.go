package upsertprofile

type Input struct {
	Username      string `json:"username"`
	Password      string `json:"password,omitempty"` // plain; encoded before storage
	DisplayName   string `json:"displayName,omitempty"`
	Village       string `json:"village,omitempty"`
	District      string `json:"district,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	PreferredCrop string `json:"preferredCrop,omitempty"`
}

type Output struct {
	Username string `json:"username"`
	Created  bool   `json:"created"` // false when an existing profile was updated
	Cached   bool   `json:"cached"`
}

// profileSchema gates writes; username and displayName are the only hard
// requirements, contact fields are validated when present.
var profileSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"username", "displayName"},
	"properties": map[string]interface{}{
		"username":    map[string]interface{}{"type": "string", "minLength": 3, "maxLength": 64},
		"displayName": map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 128},
		"email":       map[string]interface{}{"type": "string"},
		"phone":       map[string]interface{}{"type": "string"},
	},
}
