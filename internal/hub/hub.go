// Package hub implements the collective intelligence hub: knowledge
// sharing, agent-to-agent messaging, collaborative problem solving, and
// emergent behavior detection for a set of registered agents.
//
// The hub is an in-process library. Agent wrappers register once at
// startup, then share knowledge, exchange messages, and run collaborations
// as side effects of producing responses; callers poll
// AnalyzeCollectiveBehavior for a dashboard and CleanupOldData for
// retention. All in-memory state sits behind one coarse lock, so the hub is
// safe for concurrent callers.
package hub

import (
	"sync"
	"time"

	"hivemind/internal/config"
	"hivemind/internal/logging"
	"hivemind/internal/store"
	"hivemind/internal/types"
)

// Hub is the central coordination point for the agent collective. Construct
// one per process with New and inject it into whatever serves the agent
// layer; tests can construct isolated instances against temp directories.
type Hub struct {
	cfg    config.HubConfig
	stores *store.Stores

	mu sync.Mutex

	// Agent registry, in registration order.
	agents     map[string]*types.AgentRegistration
	agentOrder []string

	// Per-recipient delivery queues. Ephemeral: lost on restart, only the
	// audit log in the message store is durable.
	queues map[string][]types.AgentMessage

	// Interaction tracking for behavior analysis.
	interactions map[string]int                 // "from->to" send counts
	networks     map[string]map[string]struct{} // adjacency: from -> set of to
	patterns     map[string][]time.Time         // "from-to-type" send times

	// Collaborative tasks, cached in memory and persisted on every change.
	tasks     map[string]*types.CollaborativeTask
	taskOrder []string

	observers []Observer
	obsMu     sync.RWMutex

	now func() time.Time
}

// New opens the hub's durable stores under the config's collective
// directory and rehydrates any persisted collaborative tasks.
func New(cfg *config.Config) (*Hub, error) {
	timer := logging.StartTimer(logging.CategoryHub, "hub.New")
	defer timer.Stop()

	stores, err := store.Open(cfg.CollectiveDir())
	if err != nil {
		return nil, err
	}

	h := newWithStores(cfg.Hub, stores)

	tasks, err := stores.Collaborations.Load()
	if err != nil {
		stores.Close()
		return nil, err
	}
	for _, task := range tasks {
		h.tasks[task.ID] = task
		h.taskOrder = append(h.taskOrder, task.ID)
	}

	logging.Hub("Collective intelligence hub initialized (%d tasks rehydrated)", len(tasks))
	return h, nil
}

func newWithStores(cfg config.HubConfig, stores *store.Stores) *Hub {
	return &Hub{
		cfg:          cfg,
		stores:       stores,
		agents:       make(map[string]*types.AgentRegistration),
		queues:       make(map[string][]types.AgentMessage),
		interactions: make(map[string]int),
		networks:     make(map[string]map[string]struct{}),
		patterns:     make(map[string][]time.Time),
		tasks:        make(map[string]*types.CollaborativeTask),
		now:          time.Now,
	}
}

// Close releases the hub's databases. In-memory queues and counters are
// discarded.
func (h *Hub) Close() error {
	logging.Hub("Shutting down collective intelligence hub")
	return h.stores.Close()
}

// rapidWindow returns the rapid-communication detection window.
func (h *Hub) rapidWindow() time.Duration {
	return time.Duration(h.cfg.RapidWindowMinutes) * time.Minute
}
