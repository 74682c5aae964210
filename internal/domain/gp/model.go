package gp

import "time"

// GrandPrix identifies one race weekend in the season calendar. Index is the
// hub's ordinal for the GP, used to address historical lineups and points.
type GrandPrix struct {
	Index    int
	Name     string
	IsNext   bool
	StartsAt time.Time
	Circuit  string
	Country  string
}

// Points is the scoring outcome of one lineup for one Grand Prix.
type Points struct {
	GPIndex  int
	Total    int64
	ByEntity map[string]int64
}

// ElementPoints is the per-GP scoring history of a single entity.
type ElementPoints struct {
	EntityID string
	PerGP    map[int]int64
	Total    int64
}
