// Package sqlite provides a local SQLite encounter log used by the simulator.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/storage"
)

// ErrDuplicate is returned when an encounter ID is logged twice.
var ErrDuplicate = errors.New("encounter already logged")

const schema = `
CREATE TABLE IF NOT EXISTS encounters (
	id          TEXT    PRIMARY KEY,
	winner      TEXT    NOT NULL,
	verdict     TEXT    NOT NULL,
	turns       INTEGER NOT NULL,
	waves       INTEGER NOT NULL,
	total_waves INTEGER NOT NULL,
	experience  INTEGER NOT NULL,
	gold        INTEGER NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS participants (
	encounter_id TEXT    NOT NULL REFERENCES encounters (id) ON DELETE CASCADE,
	position     INTEGER NOT NULL,
	combatant_id TEXT    NOT NULL,
	name         TEXT    NOT NULL,
	side         TEXT    NOT NULL,
	fate         TEXT    NOT NULL,
	experience   INTEGER NOT NULL,
	gold         INTEGER NOT NULL,
	PRIMARY KEY (encounter_id, position)
);
CREATE INDEX IF NOT EXISTS idx_encounters_created_at ON encounters (created_at);
`

// Log persists finished encounters in a SQLite file.
type Log struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens (creating if needed) the log at path and applies the schema.
//
// Precondition: path must be non-empty.
// Postcondition: Returns an open Log or a non-nil error.
func Open(path string) (*Log, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite log path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Log{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (l *Log) Close() error {
	if l == nil || l.sqlDB == nil {
		return nil
	}
	return l.sqlDB.Close()
}

// Record logs a finished encounter and its participants.
//
// Precondition: v must be non-nil with a non-empty EncounterID.
// Postcondition: Returns nil on success or ErrDuplicate for a repeated ID.
func (l *Log) Record(ctx context.Context, v *combat.Verdict, roster []*combat.Combatant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := storage.NewEncounterRecord(v, roster)
	if rec.ID == "" {
		return fmt.Errorf("encounter id is required")
	}

	tx, err := l.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO encounters (id, winner, verdict, turns, waves, total_waves, experience, gold, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Winner, rec.Verdict, rec.Turns, rec.Waves, rec.TotalWaves,
		rec.Experience, rec.Gold, l.now().UTC().UnixMilli(),
	)
	if err != nil {
		if isConstraintError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert encounter: %w", err)
	}
	for i, p := range rec.Participants {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO participants (encounter_id, position, combatant_id, name, side, fate, experience, gold)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, i, p.CombatantID, p.Name, p.Side, p.Fate, p.Experience, p.Gold,
		)
		if err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Recent returns up to limit encounters, newest first, with participants.
func (l *Log) Recent(ctx context.Context, limit int) ([]storage.EncounterRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := l.sqlDB.QueryContext(ctx,
		`SELECT id, winner, verdict, turns, waves, total_waves, experience, gold, created_at
		 FROM encounters ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query encounters: %w", err)
	}
	var out []storage.EncounterRecord
	for rows.Next() {
		var rec storage.EncounterRecord
		var created int64
		if err := rows.Scan(&rec.ID, &rec.Winner, &rec.Verdict, &rec.Turns, &rec.Waves, &rec.TotalWaves,
			&rec.Experience, &rec.Gold, &created); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan encounter: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, rec)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query encounters: %w", err)
	}

	for i := range out {
		parts, err := l.participants(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Participants = parts
	}
	return out, nil
}

func (l *Log) participants(ctx context.Context, id string) ([]storage.Participant, error) {
	rows, err := l.sqlDB.QueryContext(ctx,
		`SELECT combatant_id, name, side, fate, experience, gold
		 FROM participants WHERE encounter_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()
	var out []storage.Participant
	for rows.Next() {
		var p storage.Participant
		if err := rows.Scan(&p.CombatantID, &p.Name, &p.Side, &p.Fate, &p.Experience, &p.Gold); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func isConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
