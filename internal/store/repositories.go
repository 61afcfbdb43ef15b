package store

import (
	"context"
	"time"
)

// CredentialRepository defines persistence operations for doctor credentials.
type CredentialRepository interface {
	GetByEmail(ctx context.Context, email string) (*DoctorCredential, error)
	// Upsert creates the credential row or, when the calendar email is
	// already registered, overwrites its doctor id and tokens.
	Upsert(ctx context.Context, cred DoctorCredential) (*DoctorCredential, error)
	// UpdateTokens rotates the stored access token and expiry after a
	// successful refresh. The refresh token is left untouched.
	UpdateTokens(ctx context.Context, email, accessToken string, expiry time.Time) error
}

// AuditRepository is the append-only booking audit trail.
type AuditRepository interface {
	Append(ctx context.Context, audit AppointmentAudit) error
	ListByDoctorEmail(ctx context.Context, doctorEmail string) ([]AppointmentAudit, error)
	ListByPatientEmail(ctx context.Context, patientEmail string) ([]AppointmentAudit, error)
}
