package models

import "time"

// Session represents the authenticated backend session held on this device.
// The bearer token itself is stored encrypted at rest, separate from this
// profile record.
type Session struct {
	UserID     int       `json:"user_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Role       string    `json:"role"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// BiometricSettings holds the device-local biometric unlock preference.
type BiometricSettings struct {
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}
