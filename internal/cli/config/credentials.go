package config

import (
	"errors"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Credentials is the stored login session
type Credentials struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	DonorID   string    `json:"donor_id,omitempty"`
	CharityID string    `json:"charity_id,omitempty"`
}

// LoadCredentials returns nil, nil when nobody is logged in
func LoadCredentials() (*Credentials, error) {
	data, err := os.ReadFile(credentialsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SaveCredentials writes the session readable by the owner only
func SaveCredentials(creds *Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(credentialsPath, data, 0600)
}

// DeleteCredentials logs out. A missing file is not an error.
func DeleteCredentials() error {
	err := os.Remove(credentialsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// IsValid reports whether the session has a token that has not expired
func (c *Credentials) IsValid() bool {
	return c != nil && c.Token != "" && time.Now().Before(c.ExpiresAt)
}
