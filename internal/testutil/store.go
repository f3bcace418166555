package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmorken/codeclock/internal/model"
	"github.com/jmorken/codeclock/internal/store"
)

func NewStore(t *testing.T) (*store.Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, filepath.Join(t.TempDir(), "codeclock-test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s, ctx
}

// SeedSession archives a minimal ended adult session for list and
// round-trip tests.
func SeedSession(t *testing.T, s *store.Store, ctx context.Context, sessionID string, start time.Time) model.Session {
	t.Helper()
	end := start.Add(18 * time.Minute)
	epi := start.Add(2 * time.Minute)
	sess := model.Session{
		ID:                  sessionID,
		PathwayMode:         model.PathwayAdult,
		Phase:               model.PhaseCodeEnded,
		CurrentRhythm:       model.RhythmVFPVT,
		StartTime:           &start,
		EndTime:             &end,
		CPRCycleStartTime:   &start,
		LastEpinephrineTime: &epi,
		Outcome:             model.OutcomeDeceased,
		AirwayStatus:        model.AirwayAmbu,
		CPRRatio:            model.CPRRatio30to2,
	}
	one := 1.0
	records := []model.InterventionRecord{
		{ID: sessionID + "-r0", Timestamp: start, Type: model.InterventionShock, Details: "200 J", Value: f64(200), DoseStep: 0},
		{ID: sessionID + "-r1", Timestamp: epi, Type: model.InterventionEpinephrine, Details: "1 mg", Value: &one, DoseStep: 0},
		{ID: sessionID + "-r2", Timestamp: end, Type: model.InterventionTermination, Details: "deceased", DoseStep: 0},
	}
	if err := s.SaveSession(ctx, sess, records); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return sess
}

func f64(v float64) *float64 {
	return &v
}
