package usecases

import (
	"proyecto_reservas/internal/entities"
	"sort"
	"strings"
)

// TenantRegistry resolves tenant ids to their configuration. It is built once
// at startup and never mutated.
type TenantRegistry struct {
	tenants map[string]entities.TenantConfig
}

func NewTenantRegistry(tenants []entities.TenantConfig) *TenantRegistry {
	r := &TenantRegistry{tenants: make(map[string]entities.TenantConfig, len(tenants))}
	for _, t := range tenants {
		id := strings.TrimSpace(t.ID)
		if id == "" {
			continue
		}
		if existing, ok := r.tenants[id]; ok {
			t = existing.Merge(t)
		}
		t.ID = id
		r.tenants[id] = t
	}
	return r
}

// Resolve returns the tenant config. Unknown tenants are not an error here;
// callers decide how to reject them.
func (r *TenantRegistry) Resolve(id string) (entities.TenantConfig, bool) {
	t, ok := r.tenants[strings.TrimSpace(id)]
	return t, ok
}

// IDs returns the registered tenant ids in sorted order.
func (r *TenantRegistry) IDs() []string {
	ids := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered tenants.
func (r *TenantRegistry) Len() int { return len(r.tenants) }
