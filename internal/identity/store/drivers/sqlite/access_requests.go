package sqlite

import (
	"context"
	"database/sql"

	"github.com/moneylegal/identity/internal/identity/domain"
)

type accessRequestsRepo struct {
	db dbtx
}

func (r *accessRequestsRepo) CreateAccessRequest(ctx context.Context, ar domain.AccessRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_requests (id, tenant_id, user_id, message, status)
		 VALUES (?, ?, ?, ?, ?)`,
		ar.ID, ar.TenantID, ar.UserID, ptrNullString(ar.Message), string(ar.Status))
	return mapConflict(err)
}

func (r *accessRequestsRepo) GetAccessRequestByID(ctx context.Context, id string) (domain.AccessRequest, error) {
	var ar domain.AccessRequest
	var status string
	var message sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, user_id, message, status, created_at, updated_at
		 FROM access_requests WHERE id = ?`, id,
	).Scan(&ar.ID, &ar.TenantID, &ar.UserID, &message, &status, &ar.CreatedAt, &ar.UpdatedAt)
	if err != nil {
		return domain.AccessRequest{}, mapNotFound(err)
	}
	ar.Message = nullStringPtr(message)
	ar.Status = domain.AccessRequestStatus(status)
	return ar, nil
}

func (r *accessRequestsRepo) ExistsPendingAccessRequest(ctx context.Context, tenantID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM access_requests
			WHERE tenant_id = ? AND user_id = ? AND status = 'PENDING')`,
		tenantID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *accessRequestsRepo) ListPendingByTenant(ctx context.Context, tenantID string) ([]domain.AccessRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tenant_id, user_id, message, status, created_at, updated_at
		 FROM access_requests
		 WHERE tenant_id = ? AND status = 'PENDING'
		 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AccessRequest
	for rows.Next() {
		var ar domain.AccessRequest
		var status string
		var message sql.NullString
		if err := rows.Scan(&ar.ID, &ar.TenantID, &ar.UserID, &message, &status, &ar.CreatedAt, &ar.UpdatedAt); err != nil {
			return nil, err
		}
		ar.Message = nullStringPtr(message)
		ar.Status = domain.AccessRequestStatus(status)
		out = append(out, ar)
	}
	return out, rows.Err()
}

func (r *accessRequestsRepo) UpdateStatus(ctx context.Context, requestID string, status domain.AccessRequestStatus) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE access_requests SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'PENDING'`,
		string(status), requestID))
}
