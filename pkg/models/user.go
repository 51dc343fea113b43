package models

import (
	"encoding/json"
	"strings"
)

// UserFields is the `_with` projection requested for GET /users
const UserFields = "id,name,fullName,email,type,isEnabled,permissions,attributes"

// User is a VMS user account. Raw keeps the whole object because builds
// disagree on where role and profile attributes live.
type User struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	FullName    string          `json:"fullName,omitempty"`
	Email       string          `json:"email,omitempty"`
	Type        string          `json:"type,omitempty"`
	IsEnabled   bool            `json:"isEnabled"`
	Permissions json.RawMessage `json:"permissions,omitempty"`

	Raw map[string]any `json:"-"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(p)
	u.ID = strings.TrimSpace(u.ID)
	u.Raw = raw
	return nil
}

// DisplayName prefers the full name, then the login name, then the email.
func (u User) DisplayName() string {
	for _, s := range []string{u.FullName, u.Name, u.Email} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return u.ID
}

// UserEnabledPatch is the PATCH /users/{id} body
type UserEnabledPatch struct {
	IsEnabled bool `json:"isEnabled"`
}
