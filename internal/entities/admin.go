package entities

type AdminProfile struct {
	ID            int64    `json:"id"`
	FullName      string   `json:"fullName"`
	Email         string   `json:"email"`
	EmailVerified bool     `json:"emailVerified"`
	Active        bool     `json:"active"`
	Roles         []string `json:"roles"`
}

// NewUser is the add-user form. The caller owns it; consumers must treat it
// as read-only.
type NewUser struct {
	FullName string   `json:"fullName"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// Clone returns a copy that shares no slices with u.
func (u NewUser) Clone() NewUser {
	c := u
	if u.Roles != nil {
		c.Roles = append([]string(nil), u.Roles...)
	}
	return c
}
