package domain

// User is the authenticated user performing a request, extracted from
// the JWT claims by the auth middleware
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// IsAdmin reports whether the user has the administrator level
func (u User) IsAdmin() bool {
	return u.Level >= 10
}
