// Package store is the sqlite session archive behind the engine's
// persistence boundary. Sessions round-trip losslessly: every timing
// anchor, checklist flag, and journal record survives a save/load
// cycle.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jmorken/codeclock/internal/model"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("chmod db path: %w", err)
	}
	if err := ApplyMigrations(ctx, db); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// checklists is the serialized form of every closed checklist struct,
// stored as one JSON column so schema changes to individual flags do
// not require migrations.
type checklists struct {
	HsAndTs                model.HsAndTs                `json:"hs_and_ts"`
	PregnancyCauses        model.PregnancyCauses        `json:"pregnancy_causes"`
	PregnancyInterventions model.PregnancyInterventions `json:"pregnancy_interventions"`
	SpecialCircumstances   model.SpecialCircumstances   `json:"special_circumstances"`
	PostROSCChecklist      model.PostROSCChecklist      `json:"post_rosc_checklist"`
	PostROSCVitals         model.PostROSCVitals         `json:"post_rosc_vitals"`
}

// SaveSession replaces the archived session and its full journal in one
// transaction. The engine calls it after every accepted command, so the
// write must be a complete snapshot, not a delta.
func (s *Store) SaveSession(ctx context.Context, sess model.Session, records []model.InterventionRecord) error {
	blob, err := json.Marshal(checklists{
		HsAndTs:                sess.HsAndTs,
		PregnancyCauses:        sess.PregnancyCauses,
		PregnancyInterventions: sess.PregnancyInterventions,
		SpecialCircumstances:   sess.SpecialCircumstances,
		PostROSCChecklist:      sess.PostROSCChecklist,
		PostROSCVitals:         sess.PostROSCVitals,
	})
	if err != nil {
		return fmt.Errorf("marshal checklists: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
INSERT INTO sessions(session_id, pathway_mode, phase, current_rhythm,
	start_time, end_time, cpr_cycle_start_time, last_epinephrine_time,
	last_amiodarone_time, last_lidocaine_time, rosc_time,
	brady_tachy_start_time, pregnancy_start_time, ecmo_eligible_time,
	patient_weight_kg, pregnancy_active, airway_status, cpr_ratio,
	outcome, checklists, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
	pathway_mode=excluded.pathway_mode,
	phase=excluded.phase,
	current_rhythm=excluded.current_rhythm,
	start_time=excluded.start_time,
	end_time=excluded.end_time,
	cpr_cycle_start_time=excluded.cpr_cycle_start_time,
	last_epinephrine_time=excluded.last_epinephrine_time,
	last_amiodarone_time=excluded.last_amiodarone_time,
	last_lidocaine_time=excluded.last_lidocaine_time,
	rosc_time=excluded.rosc_time,
	brady_tachy_start_time=excluded.brady_tachy_start_time,
	pregnancy_start_time=excluded.pregnancy_start_time,
	ecmo_eligible_time=excluded.ecmo_eligible_time,
	patient_weight_kg=excluded.patient_weight_kg,
	pregnancy_active=excluded.pregnancy_active,
	airway_status=excluded.airway_status,
	cpr_ratio=excluded.cpr_ratio,
	outcome=excluded.outcome,
	checklists=excluded.checklists,
	updated_at=excluded.updated_at
`, sess.ID, string(sess.PathwayMode), string(sess.Phase), string(sess.CurrentRhythm),
		nullableTS(sess.StartTime), nullableTS(sess.EndTime), nullableTS(sess.CPRCycleStartTime),
		nullableTS(sess.LastEpinephrineTime), nullableTS(sess.LastAmiodaroneTime),
		nullableTS(sess.LastLidocaineTime), nullableTS(sess.ROSCTime),
		nullableTS(sess.BradyTachyStartTime), nullableTS(sess.PregnancyStartTime),
		nullableTS(sess.ECMOEligibleTime), sess.PatientWeightKg, boolToInt(sess.PregnancyActive),
		string(sess.AirwayStatus), string(sess.CPRRatio), string(sess.Outcome),
		string(blob), ts(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM interventions WHERE session_id = ?`, sess.ID); err != nil {
		return fmt.Errorf("clear interventions: %w", err)
	}
	for i, rec := range records {
		_, err := tx.ExecContext(ctx, `
INSERT INTO interventions(record_id, session_id, seq, occurred_at, type, details, value, dose_step)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, rec.ID, sess.ID, i, ts(rec.Timestamp), string(rec.Type), rec.Details, rec.Value, rec.DoseStep)
		if err != nil {
			return fmt.Errorf("insert intervention %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}

// LoadSession reconstructs an archived session and its journal, ordered
// by sequence.
func (s *Store) LoadSession(ctx context.Context, sessionID string) (model.Session, []model.InterventionRecord, error) {
	var sess model.Session
	var mode, phase, rhythm, airway, ratio, outcome, blob string
	var startT, endT, cycleT, epiT, amioT, lidoT, roscT, bradyT, pregT, ecmoT sql.NullString
	var weight sql.NullFloat64
	var pregnancyActive int
	err := s.db.QueryRowContext(ctx, `
SELECT session_id, pathway_mode, phase, current_rhythm,
	start_time, end_time, cpr_cycle_start_time, last_epinephrine_time,
	last_amiodarone_time, last_lidocaine_time, rosc_time,
	brady_tachy_start_time, pregnancy_start_time, ecmo_eligible_time,
	patient_weight_kg, pregnancy_active, airway_status, cpr_ratio,
	outcome, checklists
FROM sessions WHERE session_id = ?
`, sessionID).Scan(&sess.ID, &mode, &phase, &rhythm,
		&startT, &endT, &cycleT, &epiT, &amioT, &lidoT, &roscT,
		&bradyT, &pregT, &ecmoT,
		&weight, &pregnancyActive, &airway, &ratio, &outcome, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return model.Session{}, nil, fmt.Errorf("load session: %w", err)
	}

	sess.PathwayMode = model.PathwayMode(mode)
	sess.Phase = model.Phase(phase)
	sess.CurrentRhythm = model.Rhythm(rhythm)
	sess.AirwayStatus = model.AirwayStatus(airway)
	sess.CPRRatio = model.CPRRatio(ratio)
	sess.Outcome = model.Outcome(outcome)
	sess.PregnancyActive = pregnancyActive != 0
	if weight.Valid {
		v := weight.Float64
		sess.PatientWeightKg = &v
	}
	for _, col := range []struct {
		raw  sql.NullString
		dest **time.Time
	}{
		{startT, &sess.StartTime},
		{endT, &sess.EndTime},
		{cycleT, &sess.CPRCycleStartTime},
		{epiT, &sess.LastEpinephrineTime},
		{amioT, &sess.LastAmiodaroneTime},
		{lidoT, &sess.LastLidocaineTime},
		{roscT, &sess.ROSCTime},
		{bradyT, &sess.BradyTachyStartTime},
		{pregT, &sess.PregnancyStartTime},
		{ecmoT, &sess.ECMOEligibleTime},
	} {
		if !col.raw.Valid {
			continue
		}
		t, err := parseTS(col.raw.String)
		if err != nil {
			return model.Session{}, nil, fmt.Errorf("parse session timestamp: %w", err)
		}
		*col.dest = &t
	}

	var lists checklists
	if err := json.Unmarshal([]byte(blob), &lists); err != nil {
		return model.Session{}, nil, fmt.Errorf("unmarshal checklists: %w", err)
	}
	sess.HsAndTs = lists.HsAndTs
	sess.PregnancyCauses = lists.PregnancyCauses
	sess.PregnancyInterventions = lists.PregnancyInterventions
	sess.SpecialCircumstances = lists.SpecialCircumstances
	sess.PostROSCChecklist = lists.PostROSCChecklist
	sess.PostROSCVitals = lists.PostROSCVitals

	records, err := s.loadInterventions(ctx, sessionID)
	if err != nil {
		return model.Session{}, nil, err
	}
	return sess, records, nil
}

func (s *Store) loadInterventions(ctx context.Context, sessionID string) ([]model.InterventionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT record_id, occurred_at, type, details, value, dose_step
FROM interventions WHERE session_id = ? ORDER BY seq
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query interventions: %w", err)
	}
	defer rows.Close()

	var records []model.InterventionRecord
	for rows.Next() {
		var (
			rec        model.InterventionRecord
			occurredAt string
			recType    string
			value      sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &occurredAt, &recType, &rec.Details, &value, &rec.DoseStep); err != nil {
			return nil, fmt.Errorf("scan intervention: %w", err)
		}
		rec.Timestamp, err = parseTS(occurredAt)
		if err != nil {
			return nil, fmt.Errorf("parse intervention timestamp: %w", err)
		}
		rec.Type = model.InterventionType(recType)
		if value.Valid {
			v := value.Float64
			rec.Value = &v
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interventions: %w", err)
	}
	return records, nil
}

// SessionSummary is one row of the archive listing.
type SessionSummary struct {
	ID            string
	Phase         model.Phase
	Outcome       model.Outcome
	StartTime     *time.Time
	EndTime       *time.Time
	Interventions int
}

// ListSessions returns archived sessions, most recent first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT s.session_id, s.phase, s.outcome, s.start_time, s.end_time,
	(SELECT COUNT(*) FROM interventions i WHERE i.session_id = s.session_id)
FROM sessions s
ORDER BY s.start_time DESC, s.session_id
`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var (
			sum          SessionSummary
			phase        string
			outcome      string
			startT, endT sql.NullString
		)
		if err := rows.Scan(&sum.ID, &phase, &outcome, &startT, &endT, &sum.Interventions); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		sum.Phase = model.Phase(phase)
		sum.Outcome = model.Outcome(outcome)
		if startT.Valid {
			t, err := parseTS(startT.String)
			if err != nil {
				return nil, fmt.Errorf("parse start time: %w", err)
			}
			sum.StartTime = &t
		}
		if endT.Valid {
			t, err := parseTS(endT.String)
			if err != nil {
				return nil, fmt.Errorf("parse end time: %w", err)
			}
			sum.EndTime = &t
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// DeleteSession removes an archived session and its journal.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableTS(v *time.Time) any {
	if v == nil {
		return nil
	}
	return ts(*v)
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
