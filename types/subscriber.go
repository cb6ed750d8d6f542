package types

import "time"

// Subscriber is a newsletter signup.
type Subscriber struct {
	ID           int       `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	SubscribedAt time.Time `json:"subscribedAt" db:"subscribed_at"`
}

// ContactMessage is a contact form submission. It is not persisted; it is
// handed to the notification worker.
type ContactMessage struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Subject     string    `json:"subject,omitempty"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submittedAt"`
}
