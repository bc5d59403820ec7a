package domain

import "time"

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

const (
	UsernameMinLength = 3
	UsernameMaxLength = 150
	PasswordMinLength = 6
)
