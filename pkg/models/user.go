package models

import "time"

// User is an API caller. Created once via /auth/signup; every subsequent
// request authenticates with the API key minted at signup time (spec §6
// "Create user (external collaborator)").
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
