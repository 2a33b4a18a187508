package hub

import (
	"testing"
	"time"

	"hivemind/internal/config"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestHub constructs an isolated hub against a temp data directory.
func newTestHub(t *testing.T) *Hub {
	t.Helper()
	return newTestHubWithConfig(t, config.DefaultConfig(t.TempDir()))
}

func newTestHubWithConfig(t *testing.T, cfg *config.Config) *Hub {
	t.Helper()
	h, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

// registerTrio registers the three sandbox personas used across tests.
func registerTrio(h *Hub) {
	h.RegisterAgent("jasper", []string{"coordination", "analysis", "workshop_management"}, nil)
	h.RegisterAgent("midas", []string{"financial_analysis", "investment", "market_research"}, nil)
	h.RegisterAgent("aiven", []string{"creative_analysis", "symbolic_interpretation", "art"}, nil)
}

// fixedClock pins the hub's time source and returns a function to advance it.
func fixedClock(h *Hub, start time.Time) func(d time.Duration) {
	current := start
	h.now = func() time.Time { return current }
	return func(d time.Duration) { current = current.Add(d) }
}

func TestNewAndClose(t *testing.T) {
	cfg := config.DefaultConfig(t.TempDir())

	h, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, h)
	require.NoError(t, h.Close())
}
