package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/moneylegal/identity/internal/identity/domain"
	"github.com/moneylegal/identity/internal/identity/store"
	"github.com/moneylegal/identity/pkg/idx"
)

// TenantService manages tenant lifecycle. Ownership checks always re-read
// the caller's live membership; roles carried in tokens are never trusted
// for tenant mutations.
type TenantService struct {
	Store store.Store
}

// CreateTenant creates a tenant of the given type with the caller as
// OWNER. The slug is derived from the name and de-duplicated with a
// numeric suffix.
func (s *TenantService) CreateTenant(ctx context.Context, ownerID, name string, typ domain.TenantType) (domain.Tenant, error) {
	switch typ {
	case domain.TenantPersonal, domain.TenantFamily, domain.TenantBusiness:
	default:
		return domain.Tenant{}, ErrInvalidTenantType
	}

	var tenant domain.Tenant
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		tenant, err = createTenantWithOwner(ctx, tx, ownerID, name, typ, time.Now().UTC())
		return err
	})
	return tenant, err
}

// GetTenant returns a tenant the caller is an active member of.
func (s *TenantService) GetTenant(ctx context.Context, callerID, tenantID string) (domain.Tenant, domain.Membership, error) {
	m, err := s.activeMembership(ctx, s.Store, callerID, tenantID)
	if err != nil {
		return domain.Tenant{}, domain.Membership{}, err
	}
	t, err := s.Store.Tenants().GetTenantByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Tenant{}, domain.Membership{}, ErrNotFound
		}
		return domain.Tenant{}, domain.Membership{}, err
	}
	return t, m, nil
}

// ListUserTenants returns the caller's active memberships with their
// tenants, ordered by join time.
func (s *TenantService) ListUserTenants(ctx context.Context, userID string) ([]domain.Tenant, []domain.Membership, error) {
	members, err := s.Store.Memberships().ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	tenants := make([]domain.Tenant, 0, len(members))
	for _, m := range members {
		t, err := s.Store.Tenants().GetTenantByID(ctx, m.TenantID)
		if err != nil {
			return nil, nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, members, nil
}

// UpdateTenant renames a tenant. Requires canManageTenant on a live
// membership.
func (s *TenantService) UpdateTenant(ctx context.Context, callerID, tenantID, name string) error {
	m, err := s.activeMembership(ctx, s.Store, callerID, tenantID)
	if err != nil {
		return err
	}
	if !domain.CanManageTenant(m) {
		return ErrForbidden
	}
	return s.Store.Tenants().UpdateTenantName(ctx, tenantID, name)
}

// DeleteTenant removes a tenant and, via schema cascade, its memberships
// and invitations. Owner only.
func (s *TenantService) DeleteTenant(ctx context.Context, callerID, tenantID string) error {
	m, err := s.activeMembership(ctx, s.Store, callerID, tenantID)
	if err != nil {
		return err
	}
	if !domain.CanManageTenant(m) {
		return ErrForbidden
	}
	return s.Store.Tenants().DeleteTenant(ctx, tenantID)
}

func (s *TenantService) activeMembership(ctx context.Context, st store.Store, userID, tenantID string) (domain.Membership, error) {
	m, err := st.Memberships().GetMembership(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Membership{}, ErrForbidden
		}
		return domain.Membership{}, err
	}
	if !m.Active {
		return domain.Membership{}, ErrForbidden
	}
	return m, nil
}

// createTenantWithOwner inserts the tenant and its OWNER membership in
// the caller's transaction. Registration completion reuses this for the
// personal tenant.
func createTenantWithOwner(ctx context.Context, tx store.Tx, ownerID, name string, typ domain.TenantType, now time.Time) (domain.Tenant, error) {
	slug, err := uniqueSlug(ctx, tx, name)
	if err != nil {
		return domain.Tenant{}, err
	}

	tenant := domain.Tenant{
		ID:        idx.New().String(),
		Name:      name,
		Slug:      slug,
		Type:      typ,
		OwnerID:   ownerID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Tenants().CreateTenant(ctx, tenant); err != nil {
		return domain.Tenant{}, err
	}

	owner := domain.Membership{
		ID:       idx.New().String(),
		TenantID: tenant.ID,
		UserID:   ownerID,
		Role:     domain.RoleOwner,
		Active:   true,
		JoinedAt: now,
	}
	if err := tx.Memberships().CreateMembership(ctx, owner); err != nil {
		return domain.Tenant{}, err
	}

	return tenant, nil
}

// slugify lowercases the name and collapses every non-alphanumeric run
// into a single hyphen.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "tenant"
	}
	return s
}

// uniqueSlug appends an incrementing counter until the slug is free.
func uniqueSlug(ctx context.Context, st store.Store, name string) (string, error) {
	base := slugify(name)
	slug := base
	for i := 1; ; i++ {
		taken, err := st.Tenants().ExistsBySlug(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
