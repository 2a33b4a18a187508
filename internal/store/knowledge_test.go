package store

import (
	"path/filepath"
	"testing"
	"time"

	"hivemind/internal/types"

	"github.com/google/uuid"
)

func newTestKnowledgeStore(t *testing.T) *KnowledgeStore {
	t.Helper()
	s, err := NewKnowledgeStore(filepath.Join(t.TempDir(), "knowledge.db"))
	if err != nil {
		t.Fatalf("NewKnowledgeStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testItem(source string, confidence float64, ts time.Time) *types.KnowledgeItem {
	return &types.KnowledgeItem{
		ID:              uuid.NewString(),
		SourceAgent:     source,
		KnowledgeType:   "insight",
		Content:         "diversification reduces risk",
		ConfidenceLevel: confidence,
		RelevanceTags:   []string{"portfolio", "risk"},
		Timestamp:       ts,
	}
}

func TestKnowledgeInsertAndCandidates(t *testing.T) {
	s := newTestKnowledgeStore(t)
	now := time.Now()

	if err := s.Insert(testItem("midas", 0.9, now)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := s.Insert(testItem("aiven", 0.5, now)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	items, err := s.Candidates("jasper", 10)
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d candidates, want 2", len(items))
	}
	if items[0].SourceAgent != "midas" {
		t.Errorf("higher-confidence item should come first, got %s", items[0].SourceAgent)
	}
	if got := items[0].RelevanceTags; len(got) != 2 || got[0] != "portfolio" || got[1] != "risk" {
		t.Errorf("tags did not round-trip in order: %v", got)
	}
}

func TestKnowledgeCandidatesExcludesSource(t *testing.T) {
	s := newTestKnowledgeStore(t)

	if err := s.Insert(testItem("midas", 0.9, time.Now())); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	items, err := s.Candidates("midas", 10)
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("requester's own items must be excluded, got %d", len(items))
	}
}

func TestKnowledgeCandidatesRecencyTieBreak(t *testing.T) {
	s := newTestKnowledgeStore(t)
	base := time.Now()

	older := testItem("midas", 0.8, base.Add(-time.Hour))
	newer := testItem("aiven", 0.8, base)
	if err := s.Insert(older); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := s.Insert(newer); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	items, err := s.Candidates("jasper", 10)
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != newer.ID {
		t.Errorf("equal confidence should order by recency, got %+v", items)
	}
}

func TestKnowledgeCandidatesLimit(t *testing.T) {
	s := newTestKnowledgeStore(t)

	for i := 0; i < 5; i++ {
		if err := s.Insert(testItem("midas", 0.5, time.Now())); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	items, err := s.Candidates("jasper", 3)
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("got %d candidates, want 3", len(items))
	}
}

func TestKnowledgeCountAndDistribution(t *testing.T) {
	s := newTestKnowledgeStore(t)

	for i := 0; i < 3; i++ {
		if err := s.Insert(testItem("midas", 0.9, time.Now())); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	fact := testItem("jasper", 0.4, time.Now())
	fact.KnowledgeType = "fact"
	if err := s.Insert(fact); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 4 {
		t.Errorf("Count = %d, want 4", count)
	}

	dist, err := s.Distribution()
	if err != nil {
		t.Fatalf("Distribution failed: %v", err)
	}
	if dist["midas"]["insight"] != 3 {
		t.Errorf("midas/insight = %d, want 3", dist["midas"]["insight"])
	}
	if dist["jasper"]["fact"] != 1 {
		t.Errorf("jasper/fact = %d, want 1", dist["jasper"]["fact"])
	}
}

func TestDeleteExpired(t *testing.T) {
	s := newTestKnowledgeStore(t)
	now := time.Now()

	// Item with no expiry: survives any cleanup regardless of age.
	permanent := testItem("midas", 0.9, now.AddDate(-1, 0, 0))
	if err := s.Insert(permanent); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Item with a past expiry: removed.
	expired := testItem("aiven", 0.9, now.AddDate(0, -2, 0))
	expiry := now.AddDate(0, -1, 0)
	expired.ExpiryDate = &expiry
	if err := s.Insert(expired); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Item with a future expiry: kept.
	future := testItem("aiven", 0.9, now)
	futureExpiry := now.AddDate(0, 1, 0)
	future.ExpiryDate = &futureExpiry
	if err := s.Insert(future); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	deleted, err := s.DeleteExpired(now)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted %d items, want 1", deleted)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Count after cleanup = %d, want 2", count)
	}
}
