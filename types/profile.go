package types

import "time"

// Username is the closed set of accounts the app is provisioned for.
type Username string

const (
	UsernameAlba  Username = "Alba"
	UsernameAngel Username = "angel"
)

// IsValid reports whether u is one of the provisioned usernames.
func (u Username) IsValid() bool {
	switch u {
	case UsernameAlba, UsernameAngel:
		return true
	}
	return false
}

func (u *Username) UnmarshalJSON(data []byte) error {
	s, err := decodeEnum(data, "username", func(s string) bool { return Username(s).IsValid() })
	if err != nil {
		return err
	}
	*u = Username(s)
	return nil
}

// Profile is the application-level user row in the profiles table, keyed by
// the auth user's id.
type Profile struct {
	ID          string    `json:"id"`
	Username    Username  `json:"username"`
	DisplayName *string   `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Name is the display name when set, the username otherwise.
func (p *Profile) Name() string {
	if p.DisplayName != nil && *p.DisplayName != "" {
		return *p.DisplayName
	}
	return string(p.Username)
}
