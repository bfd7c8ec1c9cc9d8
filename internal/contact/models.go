package contact

import "time"

// Message is a contact form submission as recorded in the ledger. It is
// written once and never updated.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Submission is the inbound contact form. Lengths are counted in characters.
type Submission struct {
	Name    string `json:"name" validate:"required,min=2"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,min=5"`
	Message string `json:"message" validate:"required,min=20"`
}
