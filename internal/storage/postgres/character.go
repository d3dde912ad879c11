package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/encounter/internal/game/character"
)

// ErrCharacterNotFound is returned when a character lookup yields no results.
var ErrCharacterNotFound = errors.New("character not found")

// ErrCharacterNameTaken is returned when creating a character with a name already in use.
var ErrCharacterNameTaken = errors.New("character name already taken")

const characterColumns = `id, name, class, level, experience, gold,
	strength, dexterity, constitution, intelligence, wisdom, charisma,
	max_hp, current_hp, ac, weapon_name, weapon_dice, status, created_at, updated_at`

// CharacterRepository provides character persistence operations.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

func scanCharacter(row pgx.Row) (*character.Character, error) {
	var c character.Character
	err := row.Scan(
		&c.ID, &c.Name, &c.Class, &c.Level, &c.Experience, &c.Gold,
		&c.Abilities.Strength, &c.Abilities.Dexterity, &c.Abilities.Constitution,
		&c.Abilities.Intelligence, &c.Abilities.Wisdom, &c.Abilities.Charisma,
		&c.MaxHP, &c.CurrentHP, &c.AC, &c.WeaponName, &c.WeaponDice, &c.Status,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new character and returns it with ID and timestamps set.
//
// Precondition: c.Name must be non-empty.
// Postcondition: Returns the created character with ID set, or ErrCharacterNameTaken on duplicate.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) (*character.Character, error) {
	status := c.Status
	if status == "" {
		status = character.StatusActive
	}
	out, err := scanCharacter(r.db.QueryRow(ctx, `
		INSERT INTO characters
			(name, class, level, experience, gold,
			 strength, dexterity, constitution, intelligence, wisdom, charisma,
			 max_hp, current_hp, ac, weapon_name, weapon_dice, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING `+characterColumns,
		c.Name, c.Class, c.Level, c.Experience, c.Gold,
		c.Abilities.Strength, c.Abilities.Dexterity, c.Abilities.Constitution,
		c.Abilities.Intelligence, c.Abilities.Wisdom, c.Abilities.Charisma,
		c.MaxHP, c.CurrentHP, c.AC, c.WeaponName, c.WeaponDice, status,
	))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrCharacterNameTaken
		}
		return nil, fmt.Errorf("inserting character: %w", err)
	}
	return out, nil
}

// GetByID retrieves a character by its primary key.
//
// Precondition: id must be > 0.
// Postcondition: Returns the Character or ErrCharacterNotFound.
func (r *CharacterRepository) GetByID(ctx context.Context, id int64) (*character.Character, error) {
	c, err := scanCharacter(r.db.QueryRow(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return c, nil
}

// LoadParty retrieves the characters with the given IDs in the order given.
//
// Precondition: ids must be non-empty and free of duplicates.
// Postcondition: Returns one character per id, or an error wrapping
// ErrCharacterNotFound naming the first missing id.
func (r *CharacterRepository) LoadParty(ctx context.Context, ids []int64) ([]*character.Character, error) {
	rows, err := r.db.Query(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("loading party: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*character.Character, len(ids))
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading party: %w", err)
	}

	party := make([]*character.Character, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("character %d: %w", id, ErrCharacterNotFound)
		}
		party = append(party, c)
	}
	return party, nil
}

// SaveOutcome persists the post-encounter state of each character in one
// transaction: experience, gold, current HP and status.
//
// Precondition: every character must have ID > 0.
// Postcondition: Returns nil on success; on ErrCharacterNotFound or any other
// failure no row is changed.
func (r *CharacterRepository) SaveOutcome(ctx context.Context, chars []*character.Character) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning outcome transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range chars {
		tag, err := tx.Exec(ctx, `
			UPDATE characters
			SET experience = $2, gold = $3, current_hp = $4, status = $5, updated_at = NOW()
			WHERE id = $1`,
			c.ID, c.Experience, c.Gold, c.CurrentHP, c.Status,
		)
		if err != nil {
			return fmt.Errorf("saving character %d: %w", c.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("character %d: %w", c.ID, ErrCharacterNotFound)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing outcome: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
