package lineup

import (
	"errors"
	"fmt"
	"sync"

	"github.com/apexfantasy/paddock/internal/domain/entity"
)

var (
	ErrInvalidCategory = errors.New("entity affinity does not match slot category")
	ErrUnknownCategory = errors.New("unknown slot category")
	ErrInvalidPosition = errors.New("slot position out of range")
	ErrUnknownEntity   = errors.New("entity is not part of the roster")
)

// BoardState is informational only; no operation is gated by it.
type BoardState string

const (
	BoardEmpty           BoardState = "empty"
	BoardPartiallyFilled BoardState = "partially_filled"
	BoardFilled          BoardState = "filled"
)

// Board holds the transient assignment of a player's owned entities into the
// fixed lineup template. The hub is the durable owner of the confirmed
// lineup; a board only exists between hydrate and save.
//
// Invariants:
//   - an entity occupies at most one slot board-wide;
//   - a pilot may only occupy a slot matching its session-mode affinity;
//   - assignment is last-write-wins, the displaced entity becomes
//     available again.
type Board struct {
	mu     sync.Mutex
	roster []entity.Entity
	byID   map[string]entity.Entity
	slots  map[Category][]string // fixed length per category, "" = empty
	dirty  bool
}

// NewBoard builds an empty board over the given roster. Roster order is
// preserved by AvailableFor.
func NewBoard(roster []entity.Entity) *Board {
	b := &Board{
		roster: append([]entity.Entity(nil), roster...),
		byID:   make(map[string]entity.Entity, len(roster)),
		slots:  make(map[Category][]string, len(AllCategories)),
	}
	for _, e := range roster {
		b.byID[e.ID] = e
	}
	for _, c := range AllCategories {
		b.slots[c] = make([]string, c.Size())
	}
	return b
}

// Assign places the entity into (category, position). An occupied slot is
// overwritten unconditionally; an entity already placed elsewhere is moved.
func (b *Board) Assign(category Category, position int, entityID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	slots, err := b.slotsFor(category, position)
	if err != nil {
		return err
	}
	e, ok := b.byID[entityID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entityID)
	}
	if !category.Accepts(e) {
		return fmt.Errorf("%w: entity=%s kind=%s mode=%s slot=%s", ErrInvalidCategory, e.ID, e.Kind, e.Mode, category)
	}

	b.removeLocked(entityID)
	slots[position] = entityID
	b.dirty = true
	return nil
}

// Unassign clears the slot. Clearing an already-empty slot is a no-op.
func (b *Board) Unassign(category Category, position int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	slots, err := b.slotsFor(category, position)
	if err != nil {
		return err
	}
	if slots[position] == "" {
		return nil
	}
	slots[position] = ""
	b.dirty = true
	return nil
}

// AvailableFor returns the roster entities accepted by the category that do
// not currently occupy any slot anywhere on the board.
func (b *Board) AvailableFor(category Category) ([]entity.Entity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if category.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	assigned := b.assignedSetLocked()
	out := make([]entity.Entity, 0, len(b.roster))
	for _, e := range b.roster {
		if !category.Accepts(e) {
			continue
		}
		if _, taken := assigned[e.ID]; taken {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Clear empties every slot.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	changed := false
	for _, c := range AllCategories {
		for i := range b.slots[c] {
			if b.slots[c][i] != "" {
				b.slots[c][i] = ""
				changed = true
			}
		}
	}
	if changed {
		b.dirty = true
	}
}

// Serialize produces the hub save payload. Array categories compact to the
// assigned ids in position order; singletons serialize as null when unset.
func (b *Board) Serialize() Payload {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Payload{
		RacePilots:       compact(b.slots[CategoryRace]),
		QualifyingPilots: compact(b.slots[CategoryQualifying]),
		PracticePilots:   compact(b.slots[CategoryPractice]),
		TeamConstructor:  singleton(b.slots[CategoryTeamConstructor]),
		ChiefEngineer:    singleton(b.slots[CategoryChiefEngineer]),
		TrackEngineers:   compact(b.slots[CategoryTrackEngineer]),
	}
}

// Hydrate resets the board to the assignments in the payload. It fails on
// ids outside the roster or on affinity mismatches, leaving the board
// cleared. A hydrated board is not dirty.
func (b *Board) Hydrate(p Payload) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range AllCategories {
		for i := range b.slots[c] {
			b.slots[c][i] = ""
		}
	}
	b.dirty = false

	assign := func(category Category, ids []string) error {
		if len(ids) > category.Size() {
			return fmt.Errorf("%w: category %s holds at most %d entities, got %d", ErrInvalidPosition, category, category.Size(), len(ids))
		}
		for i, id := range ids {
			e, ok := b.byID[id]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownEntity, id)
			}
			if !category.Accepts(e) {
				return fmt.Errorf("%w: entity=%s slot=%s", ErrInvalidCategory, id, category)
			}
			b.slots[category][i] = id
		}
		return nil
	}

	if err := assign(CategoryRace, p.RacePilots); err != nil {
		return err
	}
	if err := assign(CategoryQualifying, p.QualifyingPilots); err != nil {
		return err
	}
	if err := assign(CategoryPractice, p.PracticePilots); err != nil {
		return err
	}
	if err := assign(CategoryTeamConstructor, fromSingleton(p.TeamConstructor)); err != nil {
		return err
	}
	if err := assign(CategoryChiefEngineer, fromSingleton(p.ChiefEngineer)); err != nil {
		return err
	}
	return assign(CategoryTrackEngineer, p.TrackEngineers)
}

// Slots returns a copy of the current assignments keyed by category.
func (b *Board) Slots() map[Category][]string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[Category][]string, len(b.slots))
	for c, ids := range b.slots {
		out[c] = append([]string(nil), ids...)
	}
	return out
}

// Entity resolves a roster entity by id.
func (b *Board) Entity(id string) (entity.Entity, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.byID[id]
	return e, ok
}

// Roster returns a copy of the roster in original order.
func (b *Board) Roster() []entity.Entity {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]entity.Entity(nil), b.roster...)
}

func (b *Board) State() BoardState {
	b.mu.Lock()
	defer b.mu.Unlock()

	filled := 0
	total := 0
	for _, c := range AllCategories {
		for _, id := range b.slots[c] {
			total++
			if id != "" {
				filled++
			}
		}
	}
	switch filled {
	case 0:
		return BoardEmpty
	case total:
		return BoardFilled
	default:
		return BoardPartiallyFilled
	}
}

// Dirty reports whether the board has unsaved edits.
func (b *Board) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.dirty
}

// MarkSaved clears the dirty flag after a successful hub save.
func (b *Board) MarkSaved() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dirty = false
}

func (b *Board) slotsFor(category Category, position int) ([]string, error) {
	size := category.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	if position < 0 || position >= size {
		return nil, fmt.Errorf("%w: category=%s position=%d", ErrInvalidPosition, category, position)
	}
	return b.slots[category], nil
}

func (b *Board) assignedSetLocked() map[string]struct{} {
	out := make(map[string]struct{}, 10)
	for _, c := range AllCategories {
		for _, id := range b.slots[c] {
			if id != "" {
				out[id] = struct{}{}
			}
		}
	}
	return out
}

func (b *Board) removeLocked(entityID string) {
	for _, c := range AllCategories {
		for i, id := range b.slots[c] {
			if id == entityID {
				b.slots[c][i] = ""
			}
		}
	}
}

func compact(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

func singleton(ids []string) *string {
	if len(ids) == 0 || ids[0] == "" {
		return nil
	}
	id := ids[0]
	return &id
}

func fromSingleton(id *string) []string {
	if id == nil || *id == "" {
		return nil
	}
	return []string{*id}
}
