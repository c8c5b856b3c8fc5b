package models

// Appointment represents a booked appointment as returned by the backend.
type Appointment struct {
	ID        int    `json:"id"`
	ServiceID int    `json:"service_id"`
	Doctor    string `json:"doctor,omitempty"`
	Date      string `json:"date"`
	TimeSlot  string `json:"time_slot"`
	Status    string `json:"status"`
	Notes     string `json:"notes,omitempty"`
}
