package lineup

import (
	"github.com/apexfantasy/paddock/internal/domain/entity"
)

// Category identifies one group of lineup slots for a Grand Prix.
type Category string

const (
	CategoryRace            Category = "race"
	CategoryQualifying      Category = "qualifying"
	CategoryPractice        Category = "practice"
	CategoryTeamConstructor Category = "team_constructor"
	CategoryChiefEngineer   Category = "chief_engineer"
	CategoryTrackEngineer   Category = "track_engineer"
)

// AllCategories is the board template in slot order: two pilot slots per
// session, one constructor, one chief engineer, two track engineers.
var AllCategories = []Category{
	CategoryRace,
	CategoryQualifying,
	CategoryPractice,
	CategoryTeamConstructor,
	CategoryChiefEngineer,
	CategoryTrackEngineer,
}

func (c Category) Size() int {
	switch c {
	case CategoryRace, CategoryQualifying, CategoryPractice, CategoryTrackEngineer:
		return 2
	case CategoryTeamConstructor, CategoryChiefEngineer:
		return 1
	default:
		return 0
	}
}

func (c Category) Singleton() bool {
	return c.Size() == 1
}

// Accepts reports whether an entity may occupy a slot of this category.
// Pilot slots additionally require a matching session-mode affinity.
func (c Category) Accepts(e entity.Entity) bool {
	switch c {
	case CategoryRace:
		return e.Kind == entity.KindPilot && e.Mode == entity.ModeRace
	case CategoryQualifying:
		return e.Kind == entity.KindPilot && e.Mode == entity.ModeQualifying
	case CategoryPractice:
		return e.Kind == entity.KindPilot && e.Mode == entity.ModePractice
	case CategoryTeamConstructor:
		return e.Kind == entity.KindTeamConstructor
	case CategoryChiefEngineer:
		return e.Kind == entity.KindChiefEngineer
	case CategoryTrackEngineer:
		return e.Kind == entity.KindTrackEngineer
	default:
		return false
	}
}

// Payload is the wire shape the league hub expects for a lineup. Array
// categories carry assigned ids only, in position order; removed slots are
// compacted away rather than padded with nulls. Singleton categories use
// null when unset.
type Payload struct {
	RacePilots       []string `json:"race_pilots"`
	QualifyingPilots []string `json:"qualifying_pilots"`
	PracticePilots   []string `json:"practice_pilots"`
	TeamConstructor  *string  `json:"team_constructor_id"`
	ChiefEngineer    *string  `json:"chief_engineer_id"`
	TrackEngineers   []string `json:"track_engineers"`
}

// Historical is a past lineup as returned by the hub's history endpoint.
type Historical struct {
	GPIndex int
	Payload Payload
}
