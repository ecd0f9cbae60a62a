package entity

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

type NewUser struct {
	ID       int64
	Username string
	Email    string
	Phone    string
}
