package types

// SiteEvents is the public events payload. Placeholder is true when the
// store had nothing to show and the fixed fallback set was served.
type SiteEvents struct {
	Items       []Event `json:"items"`
	Placeholder bool    `json:"placeholder"`
}

// SiteNews is the public news payload.
type SiteNews struct {
	Items       []NewsPost `json:"items"`
	Categories  []string   `json:"categories"`
	Placeholder bool       `json:"placeholder"`
}

// SiteMenu is the public navigation payload.
type SiteMenu struct {
	Items       []MenuItem `json:"items"`
	Placeholder bool       `json:"placeholder"`
}

// DashboardStats summarises content counts for the admin dashboard.
type DashboardStats struct {
	Events        int   `json:"events"`
	News          int   `json:"news"`
	Subscribers   int   `json:"subscribers"`
	Donations     int   `json:"donations"`
	DonationTotal int64 `json:"donationTotal"`
}
