package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/moneylegal/identity/internal/identity/domain"
)

type invitationsRepo struct {
	db dbtx
}

const invitationColumns = `id, tenant_id, email, code, role, invited_by, status,
	created_at, expires_at, accepted_at, accepted_by, rejected_at`

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invitations (id, tenant_id, email, code, role, invited_by, status, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.TenantID, inv.Email, inv.Code, int(inv.Role), inv.InvitedBy,
		string(inv.Status), inv.ExpiresAt)
	return mapConflict(err)
}

func scanInvitation(row *sql.Row) (domain.Invitation, error) {
	var inv domain.Invitation
	var status string
	var acceptedAt, rejectedAt sql.NullTime
	var acceptedBy sql.NullString

	err := row.Scan(&inv.ID, &inv.TenantID, &inv.Email, &inv.Code, &inv.Role, &inv.InvitedBy,
		&status, &inv.CreatedAt, &inv.ExpiresAt, &acceptedAt, &acceptedBy, &rejectedAt)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	inv.Status = domain.InvitationStatus(status)
	inv.AcceptedAt = nullTimePtr(acceptedAt)
	inv.AcceptedBy = nullStringPtr(acceptedBy)
	inv.RejectedAt = nullTimePtr(rejectedAt)
	return inv, nil
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	return scanInvitation(r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id))
}

func (r *invitationsRepo) GetPendingByCode(ctx context.Context, code string, now time.Time) (domain.Invitation, error) {
	return scanInvitation(r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE code = ? AND status = 'PENDING' AND expires_at > ?`, code, now))
}

func (r *invitationsRepo) ExistsPending(ctx context.Context, tenantID, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM invitations
			WHERE tenant_id = ? AND lower(email) = lower(?) AND status = 'PENDING')`,
		tenantID, email,
	).Scan(&exists)
	return exists, err
}

func (r *invitationsRepo) ListByTenant(ctx context.Context, tenantID string) ([]domain.Invitation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE tenant_id = ? ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invitation
	for rows.Next() {
		var inv domain.Invitation
		var status string
		var acceptedAt, rejectedAt sql.NullTime
		var acceptedBy sql.NullString

		if err := rows.Scan(&inv.ID, &inv.TenantID, &inv.Email, &inv.Code, &inv.Role, &inv.InvitedBy,
			&status, &inv.CreatedAt, &inv.ExpiresAt, &acceptedAt, &acceptedBy, &rejectedAt); err != nil {
			return nil, err
		}
		inv.Status = domain.InvitationStatus(status)
		inv.AcceptedAt = nullTimePtr(acceptedAt)
		inv.AcceptedBy = nullStringPtr(acceptedBy)
		inv.RejectedAt = nullTimePtr(rejectedAt)
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invitationsRepo) MarkAccepted(ctx context.Context, invitationID, userID string, at time.Time) error {
	// Guarding on status makes the PENDING -> terminal transition single-shot.
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE invitations SET status = 'ACCEPTED', accepted_at = ?, accepted_by = ?
		 WHERE id = ? AND status = 'PENDING'`,
		at, userID, invitationID))
}

func (r *invitationsRepo) MarkRejected(ctx context.Context, invitationID string, at time.Time) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE invitations SET status = 'REJECTED', rejected_at = ?
		 WHERE id = ? AND status = 'PENDING'`,
		at, invitationID))
}

func (r *invitationsRepo) MarkCancelled(ctx context.Context, invitationID string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE invitations SET status = 'CANCELLED'
		 WHERE id = ? AND status = 'PENDING'`,
		invitationID))
}

func (r *invitationsRepo) ExpireStale(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE invitations SET status = 'EXPIRED'
		 WHERE status = 'PENDING' AND expires_at <= ?`, now)
	return err
}
