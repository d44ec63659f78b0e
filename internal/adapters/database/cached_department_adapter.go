package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/domain/providers"
	"github.com/zatekoja/omnichannel-engine/internal/domain/repositories"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/observability"
)

// CachedDepartmentAdapter wraps a DepartmentRepository with caching of the
// point lookups that the routing hook chain performs on every inquiry. Write
// operations pass through and invalidate the affected entries.
type CachedDepartmentAdapter struct {
	adapter repositories.DepartmentRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedDepartmentAdapter creates a new cached department adapter
func NewCachedDepartmentAdapter(adapter repositories.DepartmentRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.DepartmentRepository {
	return &CachedDepartmentAdapter{
		adapter: adapter,
		cache:   cache,
		metrics: metrics,
	}
}

// departmentByIDTTL is short on purpose: the routing hot path tolerates a
// slightly stale fallback pointer, topology changes do not.
const departmentByIDTTL = 60

func departmentCacheKey(id string) string {
	return fmt.Sprintf("department:%s", id)
}

// GetByID retrieves a department by ID with caching
func (a *CachedDepartmentAdapter) GetByID(ctx context.Context, id string) (*entities.Department, error) {
	cacheKey := departmentCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var department entities.Department
		if err := json.Unmarshal(cached, &department); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, "department")
			return &department, nil
		}
	}
	observability.RecordCacheMiss(ctx, a.metrics, "department")

	department, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(department); err == nil {
		// Best effort; a failed cache write must not fail the lookup.
		_ = a.cache.Set(ctx, cacheKey, data, departmentByIDTTL)
	}
	return department, nil
}

// AssignBusinessHour links a business hour and invalidates the departments
func (a *CachedDepartmentAdapter) AssignBusinessHour(ctx context.Context, departmentIDs []string, businessHourID string) error {
	if err := a.adapter.AssignBusinessHour(ctx, departmentIDs, businessHourID); err != nil {
		return err
	}
	a.invalidate(ctx, departmentIDs)
	return nil
}

// RemoveBusinessHourByIDs unlinks a business hour and invalidates the departments
func (a *CachedDepartmentAdapter) RemoveBusinessHourByIDs(ctx context.Context, departmentIDs []string, businessHourID string) error {
	if err := a.adapter.RemoveBusinessHourByIDs(ctx, departmentIDs, businessHourID); err != nil {
		return err
	}
	a.invalidate(ctx, departmentIDs)
	return nil
}

// FindEnabledByBusinessHourID passes through
func (a *CachedDepartmentAdapter) FindEnabledByBusinessHourID(ctx context.Context, businessHourID string) ([]*entities.Department, error) {
	return a.adapter.FindEnabledByBusinessHourID(ctx, businessHourID)
}

// CountByBusinessHourIDExcluding passes through
func (a *CachedDepartmentAdapter) CountByBusinessHourIDExcluding(ctx context.Context, businessHourID, excludeDepartmentID string) (int, error) {
	return a.adapter.CountByBusinessHourIDExcluding(ctx, businessHourID, excludeDepartmentID)
}

// FindDepartmentIDsByBusinessHourID passes through
func (a *CachedDepartmentAdapter) FindDepartmentIDsByBusinessHourID(ctx context.Context, businessHourID string) ([]string, error) {
	return a.adapter.FindDepartmentIDsByBusinessHourID(ctx, businessHourID)
}

// FindAgentIDsByDepartmentIDs passes through
func (a *CachedDepartmentAdapter) FindAgentIDsByDepartmentIDs(ctx context.Context, departmentIDs []string) ([]string, error) {
	return a.adapter.FindAgentIDsByDepartmentIDs(ctx, departmentIDs)
}

// CountDepartmentsByAgentID passes through
func (a *CachedDepartmentAdapter) CountDepartmentsByAgentID(ctx context.Context, agentID string) (int, error) {
	return a.adapter.CountDepartmentsByAgentID(ctx, agentID)
}

// CountByAgentIDAndBusinessHourID passes through
func (a *CachedDepartmentAdapter) CountByAgentIDAndBusinessHourID(ctx context.Context, agentID, businessHourID string) (int, error) {
	return a.adapter.CountByAgentIDAndBusinessHourID(ctx, agentID, businessHourID)
}

// FindAgentIDsOutsideDepartmentBusinessHours passes through
func (a *CachedDepartmentAdapter) FindAgentIDsOutsideDepartmentBusinessHours(ctx context.Context) ([]string, error) {
	return a.adapter.FindAgentIDsOutsideDepartmentBusinessHours(ctx)
}

// AddAgent adds an agent to a department and invalidates it
func (a *CachedDepartmentAdapter) AddAgent(ctx context.Context, departmentID, agentID string) error {
	if err := a.adapter.AddAgent(ctx, departmentID, agentID); err != nil {
		return err
	}
	a.invalidate(ctx, []string{departmentID})
	return nil
}

// RemoveAgent removes an agent from a department and invalidates it
func (a *CachedDepartmentAdapter) RemoveAgent(ctx context.Context, departmentID, agentID string) error {
	if err := a.adapter.RemoveAgent(ctx, departmentID, agentID); err != nil {
		return err
	}
	a.invalidate(ctx, []string{departmentID})
	return nil
}

func (a *CachedDepartmentAdapter) invalidate(ctx context.Context, departmentIDs []string) {
	for _, id := range departmentIDs {
		if err := a.cache.Delete(ctx, departmentCacheKey(id)); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("department_id", id).
				Msg("Failed to invalidate department cache")
		}
	}
}
