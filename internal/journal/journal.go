// Package journal is the append-only intervention log owned by the
// session. Timestamps are assigned by the journal's own time source at
// append time, never taken from the caller, so the log is
// timestamp-non-decreasing by construction.
package journal

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jmorken/codeclock/internal/clock"
	"github.com/jmorken/codeclock/internal/model"
)

var ErrOutOfOrder = errors.New("journal records out of order")

type Journal struct {
	clock   clock.Clock
	records []model.InterventionRecord
}

func New(c clock.Clock) *Journal {
	return &Journal{clock: c, records: make([]model.InterventionRecord, 0, 32)}
}

// Append stamps and stores a new record and returns it. The timestamp
// comes from the journal's clock; if the wall clock stepped backwards it
// is clamped to the previous record's timestamp to keep the log ordered.
func (j *Journal) Append(t model.InterventionType, details string, value *float64) model.InterventionRecord {
	now := j.clock.Now()
	if n := len(j.records); n > 0 && now.Before(j.records[n-1].Timestamp) {
		now = j.records[n-1].Timestamp
	}
	rec := model.InterventionRecord{
		ID:        uuid.NewString(),
		Timestamp: now,
		Type:      t,
		Details:   details,
		Value:     value,
		DoseStep:  j.CountOf(t),
	}
	j.records = append(j.records, rec)
	return rec
}

func (j *Journal) CountOf(t model.InterventionType) int {
	n := 0
	for _, rec := range j.records {
		if rec.Type == t {
			n++
		}
	}
	return n
}

// LastInstant returns the timestamp of the most recent record of the
// given type, or nil if none exists.
func (j *Journal) LastInstant(t model.InterventionType) *time.Time {
	for i := len(j.records) - 1; i >= 0; i-- {
		if j.records[i].Type == t {
			ts := j.records[i].Timestamp
			return &ts
		}
	}
	return nil
}

// LatestSequenceNumber is the 0-based DoseStep of the most recent record
// of the given type, or -1 if none exists. The next dose's step equals
// CountOf.
func (j *Journal) LatestSequenceNumber(t model.InterventionType) int {
	return j.CountOf(t) - 1
}

func (j *Journal) Len() int {
	return len(j.records)
}

// All returns a read-only snapshot reflecting only completed appends at
// call time.
func (j *Journal) All() []model.InterventionRecord {
	out := make([]model.InterventionRecord, len(j.records))
	copy(out, j.records)
	return out
}

// Restore replaces the journal contents from persisted records, e.g.
// when resuming an archived session. Records must already be
// timestamp-non-decreasing.
func (j *Journal) Restore(records []model.InterventionRecord) error {
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp.Before(records[i-1].Timestamp) {
			return ErrOutOfOrder
		}
	}
	j.records = make([]model.InterventionRecord, len(records))
	copy(j.records, records)
	return nil
}
