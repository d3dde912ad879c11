package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/storage"
)

// ErrEncounterNotFound is returned when an encounter lookup yields no results.
var ErrEncounterNotFound = errors.New("encounter not found")

// ErrEncounterExists is returned when recording an encounter ID twice.
var ErrEncounterExists = errors.New("encounter already recorded")

// EncounterRepository persists finished encounter results.
type EncounterRepository struct {
	db *pgxpool.Pool
}

// NewEncounterRepository creates an EncounterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEncounterRepository(db *pgxpool.Pool) *EncounterRepository {
	return &EncounterRepository{db: db}
}

// Record stores the verdict and every participant's fate in one transaction.
//
// Precondition: v must be non-nil with a non-empty EncounterID.
// Postcondition: Returns nil on success or ErrEncounterExists for a duplicate ID.
func (r *EncounterRepository) Record(ctx context.Context, v *combat.Verdict, roster []*combat.Combatant) error {
	rec := storage.NewEncounterRecord(v, roster)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning encounter transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO encounters (id, winner, verdict, turns, waves, total_waves, experience, gold)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rec.ID, rec.Winner, rec.Verdict, rec.Turns, rec.Waves, rec.TotalWaves, rec.Experience, rec.Gold,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrEncounterExists
		}
		return fmt.Errorf("inserting encounter: %w", err)
	}

	batch := &pgx.Batch{}
	for _, p := range rec.Participants {
		batch.Queue(`
			INSERT INTO encounter_participants (encounter_id, combatant_id, name, side, fate, experience, gold)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			rec.ID, p.CombatantID, p.Name, p.Side, p.Fate, p.Experience, p.Gold,
		)
	}
	for _, l := range rec.Loot {
		batch.Queue(`
			INSERT INTO encounter_loot (encounter_id, instance_id, item_id, quantity)
			VALUES ($1,$2,$3,$4)`,
			rec.ID, l.InstanceID, l.ItemID, l.Quantity,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting encounter details: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing encounter: %w", err)
	}
	return nil
}

// Get retrieves a recorded encounter with its participants and loot.
//
// Postcondition: Returns the record or ErrEncounterNotFound.
func (r *EncounterRepository) Get(ctx context.Context, id string) (*storage.EncounterRecord, error) {
	var rec storage.EncounterRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, winner, verdict, turns, waves, total_waves, experience, gold, created_at
		FROM encounters WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.Winner, &rec.Verdict, &rec.Turns, &rec.Waves, &rec.TotalWaves,
		&rec.Experience, &rec.Gold, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEncounterNotFound
		}
		return nil, fmt.Errorf("querying encounter: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT combatant_id, name, side, fate, experience, gold
		FROM encounter_participants WHERE encounter_id = $1 ORDER BY side DESC, name`, id)
	if err != nil {
		return nil, fmt.Errorf("querying participants: %w", err)
	}
	for rows.Next() {
		var p storage.Participant
		if err := rows.Scan(&p.CombatantID, &p.Name, &p.Side, &p.Fate, &p.Experience, &p.Gold); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning participant row: %w", err)
		}
		rec.Participants = append(rec.Participants, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying participants: %w", err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT item_id, instance_id, quantity
		FROM encounter_loot WHERE encounter_id = $1 ORDER BY item_id, instance_id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying loot: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l combat.LootItem
		if err := rows.Scan(&l.ItemID, &l.InstanceID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scanning loot row: %w", err)
		}
		rec.Loot = append(rec.Loot, l)
	}
	return &rec, rows.Err()
}
