package sqlite

import (
	"context"

	"github.com/moneylegal/identity/internal/identity/domain"
)

type tenantsRepo struct {
	db dbtx
}

func (r *tenantsRepo) CreateTenant(ctx context.Context, t domain.Tenant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (id, name, slug, type, owner_id, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Slug, string(t.Type), t.OwnerID, t.Active)
	return mapConflict(err)
}

func (r *tenantsRepo) GetTenantByID(ctx context.Context, id string) (domain.Tenant, error) {
	var t domain.Tenant
	var typ string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, type, owner_id, is_active, created_at, updated_at
		 FROM tenants WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Slug, &typ, &t.OwnerID, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Tenant{}, mapNotFound(err)
	}
	t.Type = domain.TenantType(typ)
	return t, nil
}

func (r *tenantsRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE slug = ?)`, slug,
	).Scan(&exists)
	return exists, err
}

func (r *tenantsRepo) UpdateTenantName(ctx context.Context, tenantID, name string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE tenants SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, tenantID))
}

func (r *tenantsRepo) DeleteTenant(ctx context.Context, tenantID string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`DELETE FROM tenants WHERE id = ?`, tenantID))
}
