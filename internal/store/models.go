package store

import "time"

// Appointment audit statuses.
const (
	StatusBooked    = "BOOKED"
	StatusCancelled = "CANCELLED"
)

// DoctorCredential holds delegated Google credentials for one calendar owner.
// A row is created on OAuth registration and its tokens are rotated in place
// by the refresher; rows are never deleted by the scheduling engine.
type DoctorCredential struct {
	ID           int64
	DoctorID     string
	Email        string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AppointmentAudit is one append-only record per booking outcome.
type AppointmentAudit struct {
	ID           string    `json:"id"`
	DoctorEmail  string    `json:"doctorEmail"`
	PatientEmail string    `json:"patientEmail"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	SlotStart    time.Time `json:"slotStart"`
	SlotEnd      time.Time `json:"slotEnd"`
	EventID      string    `json:"eventId"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}
