package users

import "time"

// DefaultTrials is the trial allowance of a freshly created account.
const DefaultTrials = 2

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	IsPro     bool      `json:"isPro"`
	Trials    int       `json:"trials"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Identity is what a login provider tells us about a person.
type Identity struct {
	Email    string
	Name     string
	Provider string
}
