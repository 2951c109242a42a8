package models

import "time"

// Address rows are managed by the address-book service; order placement only
// reads them to format a delivery address.
type Address struct {
	AddressID    uint   `gorm:"primaryKey" json:"address_id"`
	UserID       uint   `gorm:"not null;index" json:"user_id"`
	FullName     string `json:"full_name"`
	PhoneNumber  string `json:"phone_number"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	IsDefault    bool   `json:"is_default"`
	CreatedAt    time.Time
}

// Format renders the row as a single delivery-address line, e.g.
// "12 Main Rd, Flat 3, Pune, Maharashtra - 411001".
func (a *Address) Format() string {
	out := a.AddressLine1 + ", "
	if a.AddressLine2 != "" {
		out += a.AddressLine2 + ", "
	}
	return out + a.City + ", " + a.State + " - " + a.Pincode
}
