package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// credentialRepo implements CredentialRepository.
type credentialRepo struct {
	pool *pgxpool.Pool
}

func (r *credentialRepo) GetByEmail(ctx context.Context, email string) (*DoctorCredential, error) {
	defer observeDB(ctx, "credentials.get_by_email")()

	cred := &DoctorCredential{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, doctor_id, email, access_token, refresh_token, token_expiry, created_at, updated_at
		 FROM doctor_credentials WHERE email = $1`, email,
	).Scan(&cred.ID, &cred.DoctorID, &cred.Email, &cred.AccessToken, &cred.RefreshToken,
		&cred.TokenExpiry, &cred.CreatedAt, &cred.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return cred, nil
}

func (r *credentialRepo) Upsert(ctx context.Context, cred DoctorCredential) (*DoctorCredential, error) {
	defer observeDB(ctx, "credentials.upsert")()

	out := &DoctorCredential{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO doctor_credentials (doctor_id, email, access_token, refresh_token, token_expiry)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (email) DO UPDATE SET
		   doctor_id = EXCLUDED.doctor_id,
		   access_token = EXCLUDED.access_token,
		   refresh_token = EXCLUDED.refresh_token,
		   token_expiry = EXCLUDED.token_expiry,
		   updated_at = NOW()
		 RETURNING id, doctor_id, email, access_token, refresh_token, token_expiry, created_at, updated_at`,
		cred.DoctorID, cred.Email, cred.AccessToken, cred.RefreshToken, cred.TokenExpiry,
	).Scan(&out.ID, &out.DoctorID, &out.Email, &out.AccessToken, &out.RefreshToken,
		&out.TokenExpiry, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *credentialRepo) UpdateTokens(ctx context.Context, email, accessToken string, expiry time.Time) error {
	defer observeDB(ctx, "credentials.update_tokens")()

	tag, err := r.pool.Exec(ctx,
		`UPDATE doctor_credentials
		 SET access_token = $2, token_expiry = $3, updated_at = NOW()
		 WHERE email = $1`, email, accessToken, expiry,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// auditRepo implements AuditRepository.
type auditRepo struct {
	pool *pgxpool.Pool
}

func (r *auditRepo) Append(ctx context.Context, audit AppointmentAudit) error {
	defer observeDB(ctx, "audits.append")()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO appointment_audit
		   (id, doctor_email, patient_email, first_name, last_name, slot_start, slot_end, event_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		audit.ID, audit.DoctorEmail, audit.PatientEmail, audit.FirstName, audit.LastName,
		audit.SlotStart, audit.SlotEnd, audit.EventID, audit.Status,
	)
	return err
}

func (r *auditRepo) ListByDoctorEmail(ctx context.Context, doctorEmail string) ([]AppointmentAudit, error) {
	defer observeDB(ctx, "audits.list_by_doctor")()
	return r.list(ctx, `doctor_email = $1`, doctorEmail)
}

func (r *auditRepo) ListByPatientEmail(ctx context.Context, patientEmail string) ([]AppointmentAudit, error) {
	defer observeDB(ctx, "audits.list_by_patient")()
	return r.list(ctx, `patient_email = $1`, patientEmail)
}

func (r *auditRepo) list(ctx context.Context, where string, arg any) ([]AppointmentAudit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, doctor_email, patient_email, first_name, last_name,
		        slot_start, slot_end, event_id, status, created_at
		 FROM appointment_audit WHERE `+where+` ORDER BY slot_start`, arg,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AppointmentAudit
	for rows.Next() {
		var a AppointmentAudit
		if err := rows.Scan(
			&a.ID, &a.DoctorEmail, &a.PatientEmail, &a.FirstName, &a.LastName,
			&a.SlotStart, &a.SlotEnd, &a.EventID, &a.Status, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
