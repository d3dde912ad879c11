package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func seqCombatant(id string, side Side, init, seq int) *Combatant {
	return &Combatant{ID: id, Side: side, Initiative: init, seq: seq}
}

func orderIDs(s *Sequencer) []string {
	var out []string
	for _, c := range s.Order() {
		out = append(out, c.ID)
	}
	return out
}

func TestSequencer_OrderTieBreaks(t *testing.T) {
	s := NewSequencer()
	s.Insert(
		seqCombatant("m1", SideMonster, 10, 0),
		seqCombatant("p2", SidePlayer, 10, 2),
		seqCombatant("p1", SidePlayer, 10, 1),
		seqCombatant("m0", SideMonster, 15, 3),
	)
	assert.Equal(t, []string{"m0", "p1", "p2", "m1"}, orderIDs(s))
}

func TestSequencer_CurrentBeforeStart(t *testing.T) {
	s := NewSequencer()
	s.Insert(seqCombatant("a", SidePlayer, 1, 0))
	_, ok := s.Current()
	assert.False(t, ok)

	c, ok := s.Advance()
	require.True(t, ok)
	assert.Equal(t, "a", c.ID)
	c, ok = s.Advance()
	require.True(t, ok)
	assert.Equal(t, "a", c.ID, "single combatant cycles to itself")
}

func TestSequencer_RemoveCurrentLandsOnSuccessor(t *testing.T) {
	s := NewSequencer()
	a, b, c := seqCombatant("a", SidePlayer, 3, 0), seqCombatant("b", SidePlayer, 2, 1), seqCombatant("c", SideMonster, 1, 2)
	s.Insert(a, b, c)
	s.Advance()
	s.Advance()
	cur, _ := s.Current()
	require.Equal(t, "b", cur.ID)

	require.True(t, s.Remove("b"))
	_, ok := s.Current()
	assert.False(t, ok, "pending after removing the current actor")

	next, ok := s.Advance()
	require.True(t, ok)
	assert.Equal(t, "c", next.ID)
}

func TestSequencer_RemoveLastWrapsToHead(t *testing.T) {
	s := NewSequencer()
	s.Insert(seqCombatant("a", SidePlayer, 3, 0), seqCombatant("b", SideMonster, 1, 1))
	s.Advance()
	s.Advance()
	require.True(t, s.Remove("b"))
	next, ok := s.Advance()
	require.True(t, ok)
	assert.Equal(t, "a", next.ID)
}

func TestSequencer_RemoveBeforeCursorKeepsCurrent(t *testing.T) {
	s := NewSequencer()
	s.Insert(seqCombatant("a", SidePlayer, 3, 0), seqCombatant("b", SidePlayer, 2, 1), seqCombatant("c", SideMonster, 1, 2))
	s.Advance()
	s.Advance()
	s.Advance()
	require.True(t, s.Remove("a"))
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "c", cur.ID)
	next, _ := s.Advance()
	assert.Equal(t, "b", next.ID)
	assert.False(t, s.Remove("zzz"))
}

func TestSequencer_InsertKeepsCurrent(t *testing.T) {
	s := NewSequencer()
	s.Insert(seqCombatant("a", SidePlayer, 10, 0), seqCombatant("b", SideMonster, 5, 1))
	s.Advance()
	s.Advance()
	cur, _ := s.Current()
	require.Equal(t, "b", cur.ID)

	s.Insert(seqCombatant("fast", SideMonster, 20, 2), seqCombatant("slow", SideMonster, 1, 3))
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "b", cur.ID)
	assert.Equal(t, []string{"fast", "a", "b", "slow"}, orderIDs(s))
	next, _ := s.Advance()
	assert.Equal(t, "slow", next.ID)
}

func TestSequencer_AdvanceSkipsInactive(t *testing.T) {
	s := NewSequencer()
	a, b := seqCombatant("a", SidePlayer, 2, 0), seqCombatant("b", SideMonster, 1, 1)
	s.Insert(a, b)
	s.Advance()
	b.status = StatusDead
	next, ok := s.Advance()
	require.True(t, ok)
	assert.Equal(t, "a", next.ID)

	a.status = StatusDisconnected
	_, ok = s.Advance()
	assert.False(t, ok)
}

// TestProperty_SequencerCurrentIsAlwaysActive drives random insert/remove/advance
// sequences and checks the cursor never lands on a removed combatant.
func TestProperty_SequencerCurrentIsAlwaysActive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := NewSequencer()
		present := map[string]bool{}
		next := 0
		add := func() {
			id := string(rune('a' + next%26)) + string(rune('0'+next/26))
			c := seqCombatant(id, Side(rapid.IntRange(1, 2).Draw(rt, "side")), rapid.IntRange(0, 20).Draw(rt, "init"), next)
			next++
			present[id] = true
			s.Insert(c)
		}
		for i := rapid.IntRange(1, 5).Draw(rt, "initial"); i > 0; i-- {
			add()
		}
		s.Advance()

		steps := rapid.IntRange(1, 60).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				add()
			case 1:
				order := s.Order()
				if len(order) == 0 {
					continue
				}
				victim := order[rapid.IntRange(0, len(order)-1).Draw(rt, "victim")]
				s.Remove(victim.ID)
				delete(present, victim.ID)
			case 2:
				s.Advance()
			}
			if s.Len() != len(present) {
				rt.Fatalf("order has %d entries, want %d", s.Len(), len(present))
			}
			if cur, ok := s.Current(); ok && !present[cur.ID] {
				rt.Fatalf("current %s was removed", cur.ID)
			}
		}
	})
}
