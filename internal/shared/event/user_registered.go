package event

import "time"

// UserRegisteredDestination carries accounts created by a verified signup.
const UserRegisteredDestination string = "user_registered"

// UserRegisteredConsumerWelcome is the consumer group sending the welcome email.
const UserRegisteredConsumerWelcome string = "user_registered_welcome"

type UserRegisteredMessage struct {
	UserID       int64     `json:"user_id,string"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}
