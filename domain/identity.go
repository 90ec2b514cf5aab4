package domain

// Identity is what a verified credential asserts about its bearer. The role is
// the one embedded when the credential was issued; it is not re-checked against
// the user record, so a role change only applies once a new credential is issued.
//
// A nil *Identity is an anonymous caller.
type Identity struct {
	UserID int    `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the ADMIN role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

