package models

import (
	"encoding/base64"
	"time"
)

// FarmerProfile is the username/password profile record. The password
// encoding is a trivial reversible obfuscation carried over from the
// original local-first store; it is explicitly not a security mechanism.
type FarmerProfile struct {
	Username        string    `json:"username" db:"username"`
	EncodedPassword string    `json:"-" db:"encoded_password"`
	DisplayName     string    `json:"displayName" db:"display_name"`
	Village         string    `json:"village,omitempty" db:"village"`
	District        string    `json:"district,omitempty" db:"district"`
	Phone           string    `json:"phone,omitempty" db:"phone"`
	Email           string    `json:"email,omitempty" db:"email"`
	PreferredCrop   string    `json:"preferredCrop,omitempty" db:"preferred_crop"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// EncodePassword applies the reversible base64 obfuscation.
func EncodePassword(plain string) string {
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

// DecodePassword reverses EncodePassword. Invalid input decodes to "".
func DecodePassword(encoded string) string {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ""
	}
	return string(raw)
}

// ProfileCacheKey returns the redis cache key for a profile.
func ProfileCacheKey(username string) string {
	return "profile:" + username
}
