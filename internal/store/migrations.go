package store

import (
	"context"
	"database/sql"
	"fmt"
)

type Migration struct {
	Version int
	UpSQL   string
	DownSQL string
}

var migrations = []Migration{
	{
		Version: 1,
		UpSQL: `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	pathway_mode TEXT NOT NULL CHECK(pathway_mode IN ('', 'adult','pediatric')),
	phase TEXT NOT NULL CHECK(phase IN ('pathway_selection','cpr_pending_rhythm','active_shockable','active_non_shockable','rhythm_check','post_rosc','code_ended')),
	current_rhythm TEXT NOT NULL CHECK(current_rhythm IN ('', 'vf_pvt','asystole','pea')),
	start_time TEXT,
	end_time TEXT,
	cpr_cycle_start_time TEXT,
	last_epinephrine_time TEXT,
	last_amiodarone_time TEXT,
	last_lidocaine_time TEXT,
	rosc_time TEXT,
	brady_tachy_start_time TEXT,
	pregnancy_start_time TEXT,
	ecmo_eligible_time TEXT,
	patient_weight_kg REAL,
	pregnancy_active INTEGER NOT NULL DEFAULT 0,
	airway_status TEXT NOT NULL DEFAULT '',
	cpr_ratio TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL DEFAULT '' CHECK(outcome IN ('', 'deceased','transferred')),
	checklists TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS interventions (
	record_id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	occurred_at TEXT NOT NULL,
	type TEXT NOT NULL,
	details TEXT NOT NULL,
	value REAL,
	dose_step INTEGER NOT NULL,
	UNIQUE(session_id, seq),
	FOREIGN KEY(session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS interventions_session_type
ON interventions(session_id, type);

CREATE INDEX IF NOT EXISTS sessions_start_time
ON sessions(start_time DESC);
`,
		DownSQL: `
DROP INDEX IF EXISTS sessions_start_time;
DROP INDEX IF EXISTS interventions_session_type;
DROP TABLE IF EXISTS interventions;
DROP TABLE IF EXISTS sessions;
DROP TABLE IF EXISTS schema_migrations;
`,
	},
}

func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations(version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ?`, m.Version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("apply migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES (?, datetime('now'))`, m.Version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func RollbackAll(ctx context.Context, db *sql.DB) error {
	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin rollback tx %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.DownSQL); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("rollback migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit rollback %d: %w", m.Version, err)
		}
	}
	return nil
}
