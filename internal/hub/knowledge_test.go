package hub

import (
	"strings"
	"testing"

	"hivemind/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareKnowledge(t *testing.T) {
	h := newTestHub(t)
	registerTrio(h)

	id, err := h.ShareKnowledge("midas", "insight", "Diversification reduces risk", 0.9, []string{"portfolio", "risk"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	reg, ok := h.Registration("midas")
	require.True(t, ok)
	assert.Equal(t, 1, reg.KnowledgeContributions)
}

func TestShareKnowledgeUnregisteredSource(t *testing.T) {
	h := newTestHub(t)

	// Sharing does not require prior registration.
	id, err := h.ShareKnowledge("stranger", "fact", "water is wet", 1.0, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestShareKnowledgeNotifiesMatchingAgents(t *testing.T) {
	h := newTestHub(t)
	h.RegisterAgent("midas", []string{"financial_analysis", "market_research"}, nil)
	h.RegisterAgent("jasper", []string{"coordination"}, nil)
	h.RegisterAgent("riskbot", []string{"risk_management"}, nil)

	id, err := h.ShareKnowledge("midas", "insight", "Diversification reduces portfolio risk", 0.9, []string{"risk"})
	require.NoError(t, err)

	// riskbot's capability list contains "risk": notified by the hub.
	msgs := h.Messages("riskbot", nil)
	require.Len(t, msgs, 1)
	assert.Equal(t, types.HubAgent, msgs[0].FromAgent)
	assert.Equal(t, types.MessageKnowledgeShare, msgs[0].MessageType)
	assert.Equal(t, "New insight: Diversification reduces portfolio risk...", msgs[0].Content)
	assert.Equal(t, id, msgs[0].Metadata["knowledge_id"])

	// jasper has no matching capability; midas is the source. Neither is
	// notified.
	assert.Empty(t, h.Messages("jasper", nil))
	assert.Empty(t, h.Messages("midas", nil))
}

func TestShareKnowledgeNotificationPreviewTruncated(t *testing.T) {
	h := newTestHub(t)
	h.RegisterAgent("watcher", []string{"verbosity"}, nil)

	long := strings.Repeat("x", 250)
	_, err := h.ShareKnowledge("someone", "fact", long, 0.5, []string{"verbosity"})
	require.NoError(t, err)

	msgs := h.Messages("watcher", nil)
	require.Len(t, msgs, 1)
	assert.Equal(t, "New fact: "+strings.Repeat("x", 100)+"...", msgs[0].Content)
}

func TestRelevantKnowledge(t *testing.T) {
	h := newTestHub(t)
	h.RegisterAgent("midas", []string{"financial_analysis", "market_research"}, nil)
	h.RegisterAgent("jasper", []string{"coordination"}, nil)

	_, err := h.ShareKnowledge("midas", "insight", "Diversification reduces risk", 0.9, []string{"portfolio", "risk"})
	require.NoError(t, err)

	items, err := h.RelevantKnowledge("jasper", "I need risk advice", 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "midas", items[0].SourceAgent)
	assert.Equal(t, []string{"portfolio", "risk"}, items[0].RelevanceTags)
}

func TestRelevantKnowledgeExcludesRequester(t *testing.T) {
	h := newTestHub(t)

	_, err := h.ShareKnowledge("midas", "insight", "risk management basics", 0.9, []string{"risk"})
	require.NoError(t, err)

	items, err := h.RelevantKnowledge("midas", "risk", 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRelevantKnowledgeExcludesZeroOverlap(t *testing.T) {
	h := newTestHub(t)

	_, err := h.ShareKnowledge("midas", "insight", "tulip futures looked promising", 0.9, []string{"history"})
	require.NoError(t, err)

	items, err := h.RelevantKnowledge("jasper", "quantum entanglement", 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRelevantKnowledgeOrderingAndLimit(t *testing.T) {
	h := newTestHub(t)

	// Two query-word overlaps beat one.
	_, err := h.ShareKnowledge("midas", "insight", "risk only", 0.9, nil)
	require.NoError(t, err)
	_, err = h.ShareKnowledge("aiven", "insight", "risk and reward together", 0.5, nil)
	require.NoError(t, err)
	_, err = h.ShareKnowledge("midas", "insight", "reward only", 0.7, nil)
	require.NoError(t, err)

	items, err := h.RelevantKnowledge("jasper", "risk reward", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "risk and reward together", items[0].Content)

	// Among single-overlap items the higher-confidence one survives the
	// limit, since equal scores keep store order.
	assert.Equal(t, "risk only", items[1].Content)
}

func TestRelevantKnowledgeIdempotent(t *testing.T) {
	h := newTestHub(t)

	_, err := h.ShareKnowledge("midas", "insight", "risk one", 0.9, nil)
	require.NoError(t, err)
	_, err = h.ShareKnowledge("aiven", "insight", "risk two", 0.9, nil)
	require.NoError(t, err)

	first, err := h.RelevantKnowledge("jasper", "risk", 5)
	require.NoError(t, err)
	second, err := h.RelevantKnowledge("jasper", "risk", 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestShareKnowledgeEmitsEvent(t *testing.T) {
	h := newTestHub(t)

	var got []Event
	h.AddObserver(ObserverFunc(func(e Event) {
		if e.Type == EventKnowledgeShared {
			got = append(got, e)
		}
	}))

	id, err := h.ShareKnowledge("midas", "insight", "events work", 0.8, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].Data["knowledge_id"])
	assert.Equal(t, "midas", got[0].Data["source_agent"])
}
