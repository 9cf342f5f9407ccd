package caching

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const keyPrefix = "gymflow"

// TTLs by data volatility. Reference data changes rarely, lists and details
// churn with normal CRM traffic, aggregates are rebuilt by the scheduler.
const (
	TTLReference = 30 * time.Minute
	TTLDetail    = 10 * time.Minute
	TTLList      = 5 * time.Minute
	TTLAnalytics = 60 * time.Minute
)

// Key composes a cache key as {prefix}:{entity}:{method}:{tenant}:{args}.
// Args are sorted by name so identical argument sets produce identical keys
// regardless of the caller's ordering.
func Key(entity, method string, gymID uuid.UUID, args map[string]string) string {
	base := fmt.Sprintf("%s:%s:%s:%s", keyPrefix, entity, method, gymID.String())
	if len(args) == 0 {
		return base
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(args))
	for _, name := range names {
		parts = append(parts, name+"="+args[name])
	}
	return base + ":" + strings.Join(parts, ",")
}

// DetailKey is the well-known key for a single entity row.
func DetailKey(entity string, gymID, id uuid.UUID) string {
	return fmt.Sprintf("%s:%s:detail:%s:%s", keyPrefix, entity, gymID.String(), id.String())
}

// ListPattern matches every list-variant key for an entity within a tenant,
// including all pagination and filter permutations.
func ListPattern(entity string, gymID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:list:%s*", keyPrefix, entity, gymID.String())
}

// TenantPattern matches every cached key belonging to a tenant.
func TenantPattern(gymID uuid.UUID) string {
	return fmt.Sprintf("%s:*:*:%s*", keyPrefix, gymID.String())
}

// AnalyticsKey is the key for a tenant-level aggregate metric.
func AnalyticsKey(metric string, gymID uuid.UUID) string {
	return fmt.Sprintf("%s:analytics:%s:%s", keyPrefix, metric, gymID.String())
}

// AnalyticsPattern matches every analytics key for a tenant.
func AnalyticsPattern(gymID uuid.UUID) string {
	return fmt.Sprintf("%s:analytics:*:%s", keyPrefix, gymID.String())
}
