package types

import "time"

// Event is a dated happening shown on the public events pages.
type Event struct {
	// ID is the unique identifier of the event. It is stable once created.
	ID int `json:"id" db:"id"`

	// Title is the headline of the event.
	Title string `json:"title" db:"title"`

	// Description is the full text shown on the event page.
	Description string `json:"description" db:"description"`

	// Date is when the event takes place.
	Date time.Time `json:"date" db:"date"`

	// Location is a free-form venue description.
	Location string `json:"location" db:"location"`

	// ImageURL optionally points at an uploaded or external image.
	ImageURL *string `json:"imageUrl" db:"image_url"`

	// CreatedAt is the timestamp at which the event was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the event.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
