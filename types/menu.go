package types

// MenuItem is a navigation entry with a display order and an active flag.
type MenuItem struct {
	ID int `json:"id" db:"id"`

	// Title is the link label.
	Title string `json:"title" db:"title"`

	// Path is the site-relative or absolute link target.
	Path string `json:"path" db:"path"`

	// Order sequences items ascending. Ties are broken by ID.
	Order int `json:"order" db:"position"`

	// IsActive hides the item from the public menu when false.
	IsActive bool `json:"isActive" db:"is_active"`
}
