package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/moneylegal/identity/internal/identity/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, name, email, phone, password_hash, email_verified, phone_verified,
	is_active, otp_code, otp_expires_at, last_login_at, created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var phone, passwordHash, otpCode sql.NullString
	var otpExpiresAt, lastLoginAt sql.NullTime

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &phone, &passwordHash, &u.EmailVerified, &u.PhoneVerified,
		&u.Active, &otpCode, &otpExpiresAt, &lastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Phone = nullStringPtr(phone)
	u.PasswordHash = nullStringPtr(passwordHash)
	u.OTPCode = nullStringPtr(otpCode)
	u.OTPExpiresAt = nullTimePtr(otpExpiresAt)
	u.LastLoginAt = nullTimePtr(lastLoginAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?)`, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, phone, password_hash, email_verified,
			phone_verified, is_active, otp_code, otp_expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, ptrNullString(u.Phone), ptrNullString(u.PasswordHash),
		u.EmailVerified, u.PhoneVerified, u.Active,
		ptrNullString(u.OTPCode), ptrNullTime(u.OTPExpiresAt),
	)
	return mapConflict(err)
}

func (r *usersRepo) ExistsByEmailWithPassword(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users
			WHERE lower(email) = lower(?) AND password_hash IS NOT NULL)`, email,
	).Scan(&exists)
	return exists, err
}

func (r *usersRepo) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE phone = ?)`, phone,
	).Scan(&exists)
	return exists, err
}

func (r *usersRepo) UpdateName(ctx context.Context, userID, name string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, userID))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newHash, userID))
}

func (r *usersRepo) CompleteRegistration(ctx context.Context, userID, passwordHash string, phone *string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE users
		 SET password_hash = ?, phone = ?, is_active = TRUE,
		     otp_code = NULL, otp_expires_at = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND password_hash IS NULL`,
		passwordHash, ptrNullString(phone), userID))
}

func (r *usersRepo) SetOTP(ctx context.Context, userID, code string, expiresAt time.Time) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE users SET otp_code = ?, otp_expires_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		code, expiresAt, userID))
}

func (r *usersRepo) ClearOTP(ctx context.Context, userID, code string) error {
	// Guard on the stored code so racing consumers serialise on one winner.
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE users SET otp_code = NULL, otp_expires_at = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND otp_code = ?`,
		userID, code))
}

func (r *usersRepo) MarkEmailVerified(ctx context.Context, userID string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		userID))
}

func (r *usersRepo) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		at, userID))
}

func nullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		val := ns.String
		return &val
	}
	return nil
}

func ptrNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time
		return &val
	}
	return nil
}

func ptrNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
