package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/theakash04/termify/internal/entity"
	"github.com/theakash04/termify/internal/index"
	"go.uber.org/zap"
)

// chunkCollection is the single collection every tenant namespace holds.
const chunkCollection = "chunks"

// Registry records tenant lifecycle transitions for audit and leak
// detection. Registry failures never block the lifecycle itself.
type Registry interface {
	RecordTenant(ctx context.Context, t entity.Tenant) error
	UpdateTenantState(ctx context.Context, id string, state entity.TenantState, at time.Time) error
}

// Manager owns the lifecycle of ephemeral per-session namespaces:
// UNINITIALIZED -> PROVISIONED -> INGESTING -> READY -> TORN_DOWN.
// It is the only component allowed to advance a tenant's state. Callers
// must serialize operations on one tenant; the session layer does this
// with a per-session lock.
type Manager struct {
	svc      index.Service
	registry Registry
}

func NewManager(svc index.Service, registry Registry) *Manager {
	return &Manager{svc: svc, registry: registry}
}

// Provision creates a fresh isolated namespace and returns its tenant
// handle in state PROVISIONED. Namespace names carry a full UUID so two
// sessions can never collide.
func (m *Manager) Provision(ctx context.Context) (*entity.Tenant, error) {
	id := uuid.NewString()
	namespace := "user_" + strings.ReplaceAll(id, "-", "")

	t := &entity.Tenant{
		ID:          id,
		Namespace:   namespace,
		ServiceName: namespace + "_search",
		State:       entity.TenantUninitialized,
		CreatedAt:   time.Now().UTC(),
	}

	if err := m.svc.CreateNamespace(ctx, t.Namespace); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrProvision, err)
	}
	if err := m.svc.CreateCollection(ctx, t.Namespace, chunkCollection); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrProvision, err)
	}

	t.State = entity.TenantProvisioned
	m.record(ctx, *t)

	ctxzap.Extract(ctx).Info("tenant provisioned",
		zap.String("tenant_id", t.ID),
		zap.String("namespace", t.Namespace),
	)
	return t, nil
}

// Ingest loads chunks into the tenant's namespace and builds its search
// index. Valid from PROVISIONED (first document) and READY (additional
// documents). On success the tenant is READY and queryable.
func (m *Manager) Ingest(ctx context.Context, t *entity.Tenant, chunks []entity.Chunk) error {
	switch t.State {
	case entity.TenantProvisioned, entity.TenantReady:
	case entity.TenantTornDown:
		return entity.ErrTenantTornDown
	default:
		return fmt.Errorf("%w: cannot ingest in state %s", entity.ErrTenantState, t.State)
	}

	from := t.State
	m.transition(ctx, t, entity.TenantIngesting)

	records := make([]entity.ChunkRecord, 0, len(chunks))
	for _, c := range chunks {
		records = append(records, entity.ChunkRecord{Name: c.SourceLabel, Data: c.Text})
	}

	if err := m.svc.AppendRecords(ctx, t.Namespace, chunkCollection, records); err != nil {
		m.transition(ctx, t, from)
		return fmt.Errorf("ingest tenant %s: %w", t.ID, err)
	}
	if err := m.svc.CreateSearchIndex(ctx, t.Namespace, t.ServiceName); err != nil {
		m.transition(ctx, t, from)
		return fmt.Errorf("ingest tenant %s: %w", t.ID, err)
	}

	m.transition(ctx, t, entity.TenantReady)

	ctxzap.Extract(ctx).Info("tenant ingested",
		zap.String("tenant_id", t.ID),
		zap.Int("chunks", len(records)),
	)
	return nil
}

// Teardown removes the tenant's namespace and everything in it. It is
// best effort: a failure is captured in the result for the caller to log,
// never raised, and the tenant is marked TORN_DOWN regardless so no
// further operations run against it. Tearing down a torn-down tenant is a
// no-op success.
func (m *Manager) Teardown(ctx context.Context, t *entity.Tenant) entity.TeardownResult {
	if t == nil || t.State == entity.TenantTornDown {
		return entity.TeardownResult{}
	}

	res := entity.TeardownResult{Namespace: t.Namespace}
	if err := m.svc.DropNamespace(ctx, t.Namespace, t.ServiceName); err != nil {
		res.Err = err
		ctxzap.Extract(ctx).Warn("tenant teardown failed, namespace may linger",
			zap.String("tenant_id", t.ID),
			zap.String("namespace", t.Namespace),
			zap.Error(err),
		)
	}

	m.transition(ctx, t, entity.TenantTornDown)
	return res
}

// Selector returns the index selector for querying this tenant. Only a
// READY tenant is queryable.
func (m *Manager) Selector(t *entity.Tenant) (entity.IndexSelector, error) {
	if t == nil {
		return entity.IndexSelector{}, entity.ErrTenantState
	}
	if t.State == entity.TenantTornDown {
		return entity.IndexSelector{}, entity.ErrTenantTornDown
	}
	if t.State != entity.TenantReady {
		return entity.IndexSelector{}, fmt.Errorf("%w: tenant not queryable in state %s", entity.ErrTenantState, t.State)
	}

	return entity.IndexSelector{
		UseTenant:   true,
		Namespace:   t.Namespace,
		ServiceName: t.ServiceName,
	}, nil
}

// LingeringLister reports namespaces recorded as created but never torn
// down, e.g. after a crash or a failed teardown.
type LingeringLister interface {
	ListLingering(ctx context.Context, cutoff time.Time) ([]entity.Tenant, error)
}

// ReapLingering tears down registered namespaces older than cutoff that
// never reached TORN_DOWN. Best effort like any teardown; returns how
// many namespaces were removed.
func (m *Manager) ReapLingering(ctx context.Context, lister LingeringLister, cutoff time.Time) int {
	tenants, err := lister.ListLingering(ctx, cutoff)
	if err != nil {
		ctxzap.Extract(ctx).Warn("lingering namespace scan failed", zap.Error(err))
		return 0
	}

	reaped := 0
	for i := range tenants {
		if res := m.Teardown(ctx, &tenants[i]); res.OK() {
			reaped++
		}
	}

	if len(tenants) > 0 {
		ctxzap.Extract(ctx).Info("lingering namespaces reaped",
			zap.Int("found", len(tenants)),
			zap.Int("reaped", reaped),
		)
	}
	return reaped
}

func (m *Manager) transition(ctx context.Context, t *entity.Tenant, state entity.TenantState) {
	t.State = state
	if m.registry == nil {
		return
	}
	if err := m.registry.UpdateTenantState(ctx, t.ID, state, time.Now().UTC()); err != nil {
		ctxzap.Extract(ctx).Warn("tenant registry update failed",
			zap.String("tenant_id", t.ID),
			zap.String("state", string(state)),
			zap.Error(err),
		)
	}
}

func (m *Manager) record(ctx context.Context, t entity.Tenant) {
	if m.registry == nil {
		return
	}
	if err := m.registry.RecordTenant(ctx, t); err != nil {
		ctxzap.Extract(ctx).Warn("tenant registry insert failed",
			zap.String("tenant_id", t.ID),
			zap.Error(err),
		)
	}
}
