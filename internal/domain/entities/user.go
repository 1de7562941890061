package entities

// User represents bot user.
type User struct {
	ID       int64 // Telegram user ID
	FullName string
	Username string
}

func NewUser(id int64, fullName, username string) *User {
	if username == "" {
		username = "NoUsername"
	}
	return &User{
		ID:       id,
		FullName: fullName,
		Username: username,
	}
}
