package content

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// chanceScale is the resolution used when rolling fractional drop chances.
const chanceScale = 10000

// CurrencyDrop defines the range of gold a monster carries.
type CurrencyDrop struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Roll returns a gold amount in [Min, Max].
func (c *CurrencyDrop) Roll(src dice.Source) int {
	if c == nil || c.Max <= 0 {
		return 0
	}
	spread := c.Max - c.Min
	if spread == 0 {
		return c.Min
	}
	return c.Min + src.Intn(spread+1)
}

// ItemDrop defines a single item entry in a loot table with a drop chance.
type ItemDrop struct {
	ItemID string  `yaml:"item"`
	Chance float64 `yaml:"chance"`
	MinQty int     `yaml:"min_qty"`
	MaxQty int     `yaml:"max_qty"`
}

// LootTable defines the possible drops for a monster template.
type LootTable struct {
	Currency *CurrencyDrop `yaml:"currency"`
	Items    []ItemDrop    `yaml:"items"`
}

// Validate reports every problem in the table at once. An empty table is valid.
func (lt *LootTable) Validate() error {
	var errs []error
	if c := lt.Currency; c != nil {
		if c.Min < 0 || c.Min > c.Max {
			errs = append(errs, fmt.Errorf("currency range [%d, %d] must satisfy 0 <= min <= max", c.Min, c.Max))
		}
	}
	for i, item := range lt.Items {
		name := item.ItemID
		if name == "" {
			name = fmt.Sprintf("#%d", i)
			errs = append(errs, fmt.Errorf("drop %s: item id is required", name))
		}
		if item.Chance <= 0 || item.Chance > 1 {
			errs = append(errs, fmt.Errorf("drop %s: chance %g outside (0, 1]", name, item.Chance))
		}
		if item.MinQty < 1 || item.MinQty > item.MaxQty {
			errs = append(errs, fmt.Errorf("drop %s: quantity range [%d, %d] must satisfy 1 <= min <= max", name, item.MinQty, item.MaxQty))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("loot table: %w", errors.Join(errs...))
	}
	return nil
}

// RollLoot rolls the item drops of the table. Currency is not rolled here; it
// becomes the monster's gold bounty at spawn time.
//
// Precondition: lt must have passed Validate().
// Postcondition: each returned item's Quantity is in [MinQty, MaxQty] and carries
// a fresh InstanceID.
func (lt *LootTable) RollLoot(src dice.Source) []combat.LootItem {
	var items []combat.LootItem
	for _, item := range lt.Items {
		if src.Intn(chanceScale) >= int(item.Chance*chanceScale+0.5) {
			continue
		}
		qty := item.MinQty
		if spread := item.MaxQty - item.MinQty; spread > 0 {
			qty += src.Intn(spread + 1)
		}
		items = append(items, combat.LootItem{
			ItemID:     item.ItemID,
			InstanceID: uuid.New().String(),
			Quantity:   qty,
		})
	}
	return items
}
