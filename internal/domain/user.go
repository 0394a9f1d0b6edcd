package domain

import "time"

// User is an authenticated principal. Tokens are issued by the external
// auth service and stored here only for lookup.
type User struct {
	ID        string
	Name      string
	Token     string
	IsActive  bool
	CreatedAt time.Time
}
