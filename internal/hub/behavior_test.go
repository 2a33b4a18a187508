package hub

import (
	"testing"
	"time"

	"hivemind/internal/types"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeEmptyHub(t *testing.T) {
	h := newTestHub(t)

	report, err := h.AnalyzeCollectiveBehavior()
	require.NoError(t, err)
	assert.Zero(t, report.RegisteredAgents)
	assert.Zero(t, report.TotalKnowledgeItems)
	assert.Zero(t, report.TotalCommunications)
	assert.Zero(t, report.ActiveCollaborations)
	assert.Zero(t, report.CollaborationSuccessRate)
	assert.Empty(t, report.EmergentBehaviors)
	assert.NotNil(t, report.CommunicationPatterns)
}

func TestAnalyzeReportAggregates(t *testing.T) {
	h := newTestHub(t)
	registerTrio(h)

	_, err := h.ShareKnowledge("midas", "insight", "Diversification reduces risk", 0.9, nil)
	require.NoError(t, err)
	_, err = h.ShareKnowledge("aiven", "pattern", "Symbols recur in dreams", 0.7, nil)
	require.NoError(t, err)

	_, err = h.SendMessage("jasper", "midas", types.MessageQuery, "q", nil)
	require.NoError(t, err)
	_, err = h.SendMessage("jasper", "aiven", types.MessageQuery, "q", nil)
	require.NoError(t, err)
	_, err = h.SendMessage("midas", "jasper", types.MessageResponse, "a", nil)
	require.NoError(t, err)

	// One completed collaboration, one left open.
	done, err := h.StartCollaboration("jasper", "Evaluate pricing", []string{"financial_analysis"})
	require.NoError(t, err)
	_, err = h.Contribute(done, "midas", "one", "")
	require.NoError(t, err)
	_, err = h.Contribute(done, "jasper", "two", "")
	require.NoError(t, err)
	_, err = h.StartCollaboration("aiven", "Interpret the mural", []string{"art"})
	require.NoError(t, err)

	report, err := h.AnalyzeCollectiveBehavior()
	require.NoError(t, err)
	assert.Equal(t, 3, report.RegisteredAgents)
	assert.Equal(t, 2, report.TotalKnowledgeItems)
	assert.Equal(t, 1, report.ActiveCollaborations)
	assert.Equal(t, 0.5, report.CollaborationSuccessRate)

	// Hub-sent collaboration notices count alongside agent traffic: one
	// request to midas, then completion notices to both participants.
	wantPatterns := map[string]int{
		"jasper->midas":             1,
		"jasper->aiven":             1,
		"midas->jasper":             1,
		types.HubAgent + "->midas":  2,
		types.HubAgent + "->jasper": 1,
	}
	if diff := cmp.Diff(wantPatterns, report.CommunicationPatterns); diff != "" {
		t.Errorf("communication patterns mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, report.TotalCommunications)

	wantDist := map[string]map[string]int{
		"midas": {"insight": 1},
		"aiven": {"pattern": 1},
	}
	if diff := cmp.Diff(wantDist, report.KnowledgeDistribution); diff != "" {
		t.Errorf("knowledge distribution mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeHubNotificationsCount(t *testing.T) {
	h := newTestHub(t)
	h.RegisterAgent("midas", []string{"financial_analysis"}, nil)
	h.RegisterAgent("riskbot", []string{"risk_management"}, nil)

	// The knowledge notification to riskbot is a hub-sent message and shows
	// up in the communication counters like any other.
	_, err := h.ShareKnowledge("midas", "insight", "hedge the downside", 0.8, []string{"risk"})
	require.NoError(t, err)

	report, err := h.AnalyzeCollectiveBehavior()
	require.NoError(t, err)
	assert.Equal(t, 1, report.CommunicationPatterns[types.HubAgent+"->riskbot"])
}

func TestFrequentPairsEmergentBehavior(t *testing.T) {
	h := newTestHub(t)

	// Six sends push the jasper->midas counter over the threshold of five.
	for i := 0; i < 6; i++ {
		_, err := h.SendMessage("jasper", "midas", types.MessageQuery, "q", nil)
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := h.SendMessage("midas", "jasper", types.MessageResponse, "a", nil)
		require.NoError(t, err)
	}

	report, err := h.AnalyzeCollectiveBehavior()
	require.NoError(t, err)
	assert.Contains(t, report.EmergentBehaviors, "Frequent collaborations detected: 1 agent pairs")
}

func TestKnowledgeSpecialistEmergentBehavior(t *testing.T) {
	h := newTestHub(t)

	// midas: four items of a single type. Specialist.
	for i := 0; i < 4; i++ {
		_, err := h.ShareKnowledge("midas", "insight", "market note", 0.8, nil)
		require.NoError(t, err)
	}
	// jasper: four items across two types. Not a specialist.
	for i := 0; i < 2; i++ {
		_, err := h.ShareKnowledge("jasper", "fact", "workshop note", 0.8, nil)
		require.NoError(t, err)
		_, err = h.ShareKnowledge("jasper", "insight", "workshop note", 0.8, nil)
		require.NoError(t, err)
	}
	// aiven: single type but only three items. Below the threshold.
	for i := 0; i < 3; i++ {
		_, err := h.ShareKnowledge("aiven", "pattern", "symbolic note", 0.8, nil)
		require.NoError(t, err)
	}

	report, err := h.AnalyzeCollectiveBehavior()
	require.NoError(t, err)
	assert.Contains(t, report.EmergentBehaviors, "Knowledge specialists emerged: midas")
}

func TestCleanupTrimsQueues(t *testing.T) {
	h := newTestHub(t)
	advance := fixedClock(h, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	_, err := h.SendMessage("jasper", "midas", types.MessageQuery, "old", nil)
	require.NoError(t, err)
	advance(40 * 24 * time.Hour)
	_, err = h.SendMessage("jasper", "midas", types.MessageQuery, "recent", nil)
	require.NoError(t, err)

	require.NoError(t, h.CleanupOldData(30))

	msgs := h.Messages("midas", nil)
	require.Len(t, msgs, 1)
	assert.Equal(t, "recent", msgs[0].Content)

	// The audit log keeps both.
	history, err := h.ConversationHistory("jasper", "midas")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestCleanupDeletesOnlyExpiredKnowledge(t *testing.T) {
	h := newTestHub(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(h, now)

	expired := now.AddDate(0, 0, -40)
	seed := []*types.KnowledgeItem{
		{ID: uuid.NewString(), SourceAgent: "midas", KnowledgeType: "insight",
			Content: "stale", ConfidenceLevel: 0.5, Timestamp: expired, ExpiryDate: &expired},
		{ID: uuid.NewString(), SourceAgent: "midas", KnowledgeType: "insight",
			Content: "ancient but permanent", ConfidenceLevel: 0.5, Timestamp: now.AddDate(-1, 0, 0)},
	}
	for _, item := range seed {
		require.NoError(t, h.stores.Knowledge.Insert(item))
	}

	require.NoError(t, h.CleanupOldData(30))

	count, err := h.stores.Knowledge.Count()
	require.NoError(t, err)

	// No expiry means no deletion, whatever the item's age.
	assert.Equal(t, 1, count)
}

func TestCleanupDefaultRetention(t *testing.T) {
	h := newTestHub(t)
	advance := fixedClock(h, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	_, err := h.SendMessage("jasper", "midas", types.MessageQuery, "old", nil)
	require.NoError(t, err)
	advance(31 * 24 * time.Hour)

	// daysOld <= 0 falls back to the configured 30-day default.
	require.NoError(t, h.CleanupOldData(0))
	assert.Empty(t, h.Messages("midas", nil))
}
