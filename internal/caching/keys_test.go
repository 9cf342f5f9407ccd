package caching

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKey_ArgOrderIrrelevant(t *testing.T) {
	gymID := uuid.New()

	a := Key("lead", "list", gymID, map[string]string{"status": "new", "limit": "20", "sort": "created_at:desc"})
	b := Key("lead", "list", gymID, map[string]string{"sort": "created_at:desc", "limit": "20", "status": "new"})

	assert.Equal(t, a, b, "identical argument sets must compose the same key")
}

func TestKey_DifferentArgsDifferentKeys(t *testing.T) {
	gymID := uuid.New()

	a := Key("lead", "list", gymID, map[string]string{"status": "new"})
	b := Key("lead", "list", gymID, map[string]string{"status": "contacted"})

	assert.NotEqual(t, a, b)
}

func TestKey_NoArgs(t *testing.T) {
	gymID := uuid.New()

	key := Key("tag", "list", gymID, nil)
	assert.Equal(t, "gymflow:tag:list:"+gymID.String(), key)

	empty := Key("tag", "list", gymID, map[string]string{})
	assert.Equal(t, key, empty)
}

func TestKey_TenantScoped(t *testing.T) {
	args := map[string]string{"status": "new"}

	a := Key("lead", "list", uuid.New(), args)
	b := Key("lead", "list", uuid.New(), args)

	assert.NotEqual(t, a, b, "keys for different tenants must never collide")
}

func TestListPattern_MatchesAllVariants(t *testing.T) {
	gymID := uuid.New()
	pattern := ListPattern("lead", gymID)

	matchingKeys := []string{
		Key("lead", "list", gymID, nil),
		Key("lead", "list", gymID, map[string]string{"status": "new"}),
		Key("lead", "list", gymID, map[string]string{"prioritized": "10"}),
	}
	for _, key := range matchingKeys {
		matched, err := filepath.Match(pattern, key)
		assert.NoError(t, err)
		assert.True(t, matched, key)
	}

	foreign := Key("lead", "list", uuid.New(), nil)
	matched, _ := filepath.Match(pattern, foreign)
	assert.False(t, matched, "another tenant's list keys must not match")
}

func TestTenantPattern_CoversDetailAndListKeys(t *testing.T) {
	gymID := uuid.New()
	pattern := TenantPattern(gymID)

	keys := []string{
		DetailKey("lead", gymID, uuid.New()),
		Key("appointment", "list", gymID, map[string]string{"limit": "50"}),
	}
	for _, key := range keys {
		matched, err := filepath.Match(pattern, key)
		assert.NoError(t, err)
		assert.True(t, matched, key)
	}
}

func TestAnalyticsPattern_MatchesAllMetrics(t *testing.T) {
	gymID := uuid.New()
	pattern := AnalyticsPattern(gymID)

	for _, metric := range []string{"lead_funnel", "call_stats", "appointment_stats"} {
		matched, err := filepath.Match(pattern, AnalyticsKey(metric, gymID))
		assert.NoError(t, err)
		assert.True(t, matched, metric)
	}

	matched, _ := filepath.Match(pattern, AnalyticsKey("call_stats", uuid.New()))
	assert.False(t, matched)
}

func TestDetailKey_Distinct(t *testing.T) {
	gymID := uuid.New()
	id := uuid.New()

	assert.NotEqual(t, DetailKey("lead", gymID, id), DetailKey("call", gymID, id))
	assert.NotEqual(t, DetailKey("lead", gymID, id), DetailKey("lead", gymID, uuid.New()))
}
