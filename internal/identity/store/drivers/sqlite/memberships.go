package sqlite

import (
	"context"
	"database/sql"

	"github.com/moneylegal/identity/internal/identity/domain"
)

type membershipsRepo struct {
	db dbtx
}

const membershipColumns = `id, tenant_id, user_id, role, invited_by, is_active, joined_at`

func scanMembership(row *sql.Row) (domain.Membership, error) {
	var m domain.Membership
	var invitedBy sql.NullString

	err := row.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &invitedBy, &m.Active, &m.JoinedAt)
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	m.InvitedBy = nullStringPtr(invitedBy)
	return m, nil
}

func (r *membershipsRepo) CreateMembership(ctx context.Context, m domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenant_members (id, tenant_id, user_id, role, invited_by, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.TenantID, m.UserID, int(m.Role), ptrNullString(m.InvitedBy), m.Active)
	return mapConflict(err)
}

func (r *membershipsRepo) GetMembership(ctx context.Context, tenantID, userID string) (domain.Membership, error) {
	return scanMembership(r.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM tenant_members
		 WHERE tenant_id = ? AND user_id = ?`, tenantID, userID))
}

func (r *membershipsRepo) GetMembershipByID(ctx context.Context, id string) (domain.Membership, error) {
	return scanMembership(r.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM tenant_members WHERE id = ?`, id))
}

func (r *membershipsRepo) ListActiveByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	// joined_at then id gives a stable "first active membership" order.
	return r.list(ctx,
		`SELECT `+membershipColumns+` FROM tenant_members
		 WHERE user_id = ? AND is_active = TRUE
		 ORDER BY joined_at, id`, userID)
}

func (r *membershipsRepo) ListActiveByTenant(ctx context.Context, tenantID string) ([]domain.Membership, error) {
	return r.list(ctx,
		`SELECT `+membershipColumns+` FROM tenant_members
		 WHERE tenant_id = ? AND is_active = TRUE
		 ORDER BY joined_at, id`, tenantID)
}

func (r *membershipsRepo) list(ctx context.Context, query string, args ...any) ([]domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		var m domain.Membership
		var invitedBy sql.NullString
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &invitedBy, &m.Active, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.InvitedBy = nullStringPtr(invitedBy)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *membershipsRepo) UpdateRole(ctx context.Context, membershipID string, role domain.Role) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE tenant_members SET role = ? WHERE id = ?`, int(role), membershipID))
}

func (r *membershipsRepo) DeactivateMembership(ctx context.Context, membershipID string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE tenant_members SET is_active = FALSE WHERE id = ?`, membershipID))
}

func (r *membershipsRepo) ReactivateMembership(ctx context.Context, membershipID string, role domain.Role, invitedBy *string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE tenant_members SET is_active = TRUE, role = ?, invited_by = ?
		 WHERE id = ? AND is_active = FALSE`, int(role), ptrNullString(invitedBy), membershipID))
}
