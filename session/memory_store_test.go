package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-platform/gateway/domain"
	"github.com/haven-platform/gateway/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.InitCustomMetrics(nil)
	os.Exit(m.Run())
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Stop()
	ctx := context.Background()

	sess := domain.NewSession("sid-1")
	sess.Authenticated = true
	sess.UserType = domain.UserTypeOrganization
	sess.UserData = map[string]any{"email": "org@example.com"}

	require.NoError(t, store.Put(ctx, sess))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Authenticated)
	assert.Equal(t, domain.UserTypeOrganization, got.UserType)
	assert.Equal(t, "org@example.com", got.Email())
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Stop()

	got, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Stop()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.NewSession("sid-1")))
	require.NoError(t, store.Delete(ctx, "sid-1"))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGenerateIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateID()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(id), 43) // 256 bits, base64url
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestMemoryStoreEvictionSettlesActiveGauge(t *testing.T) {
	store := NewMemoryStore(50 * time.Millisecond)
	defer store.Stop()
	ctx := context.Background()

	baseline := testutil.ToFloat64(metrics.ActiveSessionsGauge)

	sess := domain.NewSession("sid-evict")
	sess.Authenticated = true
	sess.AuthProvider = domain.AuthProviderEmail
	sess.CreatedAt = time.Now()
	require.NoError(t, store.Put(ctx, sess))
	metrics.ActiveSessionsGauge.Inc()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.ActiveSessionsGauge) == baseline
	}, 2*time.Second, 20*time.Millisecond)
}
