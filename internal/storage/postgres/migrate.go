package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/cory-johannsen/encounter/migrations"
)

// Migration directions accepted by Migrate.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// MigrationState reports the schema version after a Migrate call.
type MigrationState struct {
	Version  uint
	Dirty    bool
	NoChange bool
}

// Migrate applies the embedded migrations to the database at dsn.
// steps == 0 migrates all the way in direction.
//
// Postcondition: migrate.ErrNoChange is not an error; it sets NoChange.
func Migrate(dsn, direction string, steps int) (MigrationState, error) {
	if direction != DirectionUp && direction != DirectionDown {
		return MigrationState{}, fmt.Errorf("invalid direction %q: must be 'up' or 'down'", direction)
	}
	if steps < 0 {
		return MigrationState{}, fmt.Errorf("steps must be >= 0, got %d", steps)
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return MigrationState{}, fmt.Errorf("opening embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return MigrationState{}, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch {
	case steps > 0 && direction == DirectionUp:
		err = m.Steps(steps)
	case steps > 0:
		err = m.Steps(-steps)
	case direction == DirectionUp:
		err = m.Up()
	default:
		err = m.Down()
	}

	var state MigrationState
	if errors.Is(err, migrate.ErrNoChange) {
		state.NoChange = true
	} else if err != nil {
		return state, fmt.Errorf("migrating %s: %w", direction, err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return state, fmt.Errorf("reading schema version: %w", verr)
	}
	state.Version, state.Dirty = version, dirty
	return state, nil
}
