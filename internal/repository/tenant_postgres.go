package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/theakash04/termify/internal/entity"
)

// TenantRepository keeps the audit registry of every namespace the tenant
// manager creates, so leaked namespaces can be found and reaped by ops.
type TenantRepository struct {
	pool *pgxpool.Pool
}

func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

func (r *TenantRepository) RecordTenant(ctx context.Context, t entity.Tenant) error {
	const q = `
		INSERT INTO tenant_namespaces (id, namespace, service_name, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, q, t.ID, t.Namespace, t.ServiceName, string(t.State), t.CreatedAt); err != nil {
		return fmt.Errorf("record tenant %s: %w", t.ID, err)
	}
	return nil
}

func (r *TenantRepository) UpdateTenantState(ctx context.Context, id string, state entity.TenantState, at time.Time) error {
	const q = `
		UPDATE tenant_namespaces
		SET state = $2,
		    updated_at = $3,
		    torn_down_at = CASE WHEN $2 = $4 THEN $3 ELSE torn_down_at END
		WHERE id = $1`

	if _, err := r.pool.Exec(ctx, q, id, string(state), at, string(entity.TenantTornDown)); err != nil {
		return fmt.Errorf("update tenant %s state: %w", id, err)
	}
	return nil
}

// ListLingering returns namespaces that were created before cutoff and
// never reached TORN_DOWN. These are teardown leaks.
func (r *TenantRepository) ListLingering(ctx context.Context, cutoff time.Time) ([]entity.Tenant, error) {
	const q = `
		SELECT id, namespace, service_name, state, created_at
		FROM tenant_namespaces
		WHERE state <> $1 AND created_at < $2
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, q, string(entity.TenantTornDown), cutoff)
	if err != nil {
		return nil, fmt.Errorf("list lingering tenants: %w", err)
	}
	defer rows.Close()

	var tenants []entity.Tenant
	for rows.Next() {
		var t entity.Tenant
		var state string
		if err := rows.Scan(&t.ID, &t.Namespace, &t.ServiceName, &state, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lingering tenant: %w", err)
		}
		t.State = entity.TenantState(state)
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}
