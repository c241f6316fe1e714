package models

// UserProfile identifies an authenticated marketplace user.
type UserProfile struct {
	ID       string
	Email    string
	FullName string
	Role     string
}
