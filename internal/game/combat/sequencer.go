package combat

import "sort"

// Sequencer maintains the cyclic turn order over the active combatants.
//
// The cursor always points at the current actor. When the current actor is
// removed the sequencer enters a pending state: Current reports not-found and
// the next Advance lands on the combatant that followed the removed one.
type Sequencer struct {
	order   []*Combatant
	cursor  int
	started bool
	pending bool
}

// NewSequencer returns an empty Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Len returns the number of combatants in the cycle.
func (s *Sequencer) Len() int { return len(s.order) }

// Order returns a snapshot of the cycle in turn order.
func (s *Sequencer) Order() []*Combatant {
	out := make([]*Combatant, len(s.order))
	copy(out, s.order)
	return out
}

// Current returns the combatant whose turn it is.
//
// Postcondition: returns (nil, false) before the first Advance, when empty, or
// between removal of the current actor and the next Advance.
func (s *Sequencer) Current() (*Combatant, bool) {
	if !s.started || s.pending || len(s.order) == 0 {
		return nil, false
	}
	return s.order[s.cursor], true
}

// Position returns the index of id in the cycle, or -1.
func (s *Sequencer) Position(id string) int {
	for i, c := range s.order {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Advance moves to the next active combatant and returns it.
//
// Postcondition: the first call selects the head of the order; the returned
// combatant is always active; returns (nil, false) when nobody is active.
func (s *Sequencer) Advance() (*Combatant, bool) {
	n := len(s.order)
	if n == 0 {
		s.started = true
		s.pending = false
		s.cursor = 0
		return nil, false
	}
	switch {
	case !s.started:
		s.started = true
		s.cursor = 0
	case s.pending:
		s.cursor %= n
	default:
		s.cursor = (s.cursor + 1) % n
	}
	s.pending = false
	for i := 0; i < n; i++ {
		if c := s.order[s.cursor]; c.IsActive() {
			return c, true
		}
		s.cursor = (s.cursor + 1) % n
	}
	s.pending = true
	return nil, false
}

// Insert adds combatants and re-sorts the cycle.
//
// Postcondition: the current (or pending-next) combatant keeps its turn.
func (s *Sequencer) Insert(cs ...*Combatant) {
	anchor := s.anchor()
	s.order = append(s.order, cs...)
	s.resort(anchor)
}

// Resort re-sorts the cycle after initiative values changed.
//
// Postcondition: the current (or pending-next) combatant keeps its turn.
func (s *Sequencer) Resort() {
	s.resort(s.anchor())
}

// Remove drops the combatant with id from the cycle.
//
// Postcondition: returns false if id is not present. Removing the current actor
// leaves the sequencer pending until the next Advance.
func (s *Sequencer) Remove(id string) bool {
	idx := s.Position(id)
	if idx < 0 {
		return false
	}
	s.order = append(s.order[:idx], s.order[idx+1:]...)
	if !s.started {
		return true
	}
	switch {
	case idx < s.cursor:
		s.cursor--
	case idx == s.cursor:
		s.pending = true
	}
	if len(s.order) == 0 {
		s.cursor = 0
	}
	return true
}

func (s *Sequencer) anchor() *Combatant {
	if !s.started || len(s.order) == 0 {
		return nil
	}
	return s.order[s.cursor%len(s.order)]
}

func (s *Sequencer) resort(anchor *Combatant) {
	sortTurnOrder(s.order)
	if anchor == nil {
		return
	}
	s.cursor = s.Position(anchor.ID)
}

// sortTurnOrder orders by initiative descending, then players before monsters,
// then insertion sequence.
func sortTurnOrder(cs []*Combatant) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Initiative != b.Initiative {
			return a.Initiative > b.Initiative
		}
		if a.Side != b.Side {
			return a.Side == SidePlayer
		}
		return a.seq < b.seq
	})
}
