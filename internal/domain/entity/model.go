package entity

import (
	"fmt"
	"strings"
)

// Kind discriminates the market/roster item variants. It is resolved once at
// the data-ingestion boundary; downstream code never re-infers it from field
// shapes.
type Kind string

const (
	KindPilot           Kind = "pilot"
	KindTrackEngineer   Kind = "track_engineer"
	KindChiefEngineer   Kind = "chief_engineer"
	KindTeamConstructor Kind = "team_constructor"
)

var AllKinds = map[Kind]struct{}{
	KindPilot:           {},
	KindTrackEngineer:   {},
	KindChiefEngineer:   {},
	KindTeamConstructor: {},
}

// SessionMode is a pilot's session affinity within a Grand Prix weekend.
type SessionMode string

const (
	ModeRace       SessionMode = "race"
	ModeQualifying SessionMode = "qualifying"
	ModePractice   SessionMode = "practice"
)

var AllSessionModes = map[SessionMode]struct{}{
	ModeRace:       {},
	ModeQualifying: {},
	ModePractice:   {},
}

// Entity is an ownable item in a fantasy Grand Prix league: a pilot, one of
// the two engineer roles, or a constructor team. The lineup board holds
// non-owning references to these by id; the league hub owns their lifecycle.
type Entity struct {
	ID       string
	Kind     Kind
	Mode     SessionMode // pilots only
	Name     string
	TeamName string
	Value    int64
}

func (e Entity) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("entity id is required")
	}
	if _, ok := AllKinds[e.Kind]; !ok {
		return fmt.Errorf("invalid entity kind: %s", e.Kind)
	}
	if e.Kind == KindPilot {
		if _, ok := AllSessionModes[e.Mode]; !ok {
			return fmt.Errorf("invalid pilot session mode: %s", e.Mode)
		}
	} else if e.Mode != "" {
		return fmt.Errorf("session mode is only valid for pilots, got kind=%s mode=%s", e.Kind, e.Mode)
	}
	if e.Name == "" {
		return fmt.Errorf("entity name is required")
	}

	return nil
}

func ParseKind(raw string) (Kind, error) {
	candidate := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := AllKinds[candidate]; !ok {
		return "", fmt.Errorf("unknown entity kind %q", raw)
	}
	return candidate, nil
}

func ParseSessionMode(raw string) (SessionMode, error) {
	candidate := SessionMode(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := AllSessionModes[candidate]; !ok {
		return "", fmt.Errorf("unknown session mode %q", raw)
	}
	return candidate, nil
}
