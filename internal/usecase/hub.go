package usecase

import (
	"context"

	"github.com/apexfantasy/paddock/internal/domain/entity"
	"github.com/apexfantasy/paddock/internal/domain/gp"
	"github.com/apexfantasy/paddock/internal/domain/lineup"
	"github.com/apexfantasy/paddock/internal/domain/market"
	"github.com/apexfantasy/paddock/internal/domain/user"
)

// HubClient is the outbound contract to the league hub, the durable owner of
// rosters, lineups, auctions and scoring. Every call carries the caller's
// session explicitly; implementations attach its token and perform exactly
// one attempt per request.
type HubClient interface {
	Roster(ctx context.Context, session user.Session, leagueID string) ([]RosterItem, error)
	CurrentLineup(ctx context.Context, session user.Session, leagueID string) (lineup.Payload, error)
	SaveLineup(ctx context.Context, session user.Session, req SaveLineupRequest) (SaveLineupResult, error)
	LineupHistory(ctx context.Context, session user.Session, leagueID string) ([]lineup.Historical, error)
	LineupPoints(ctx context.Context, session user.Session, leagueID string, gpIndex int) (gp.Points, error)
	ElementPoints(ctx context.Context, session user.Session, leagueID, elementID string) (gp.ElementPoints, error)
	Market(ctx context.Context, session user.Session, leagueID string) ([]market.Auction, error)
	PlaceBid(ctx context.Context, session user.Session, req PlaceBidRequest) error
}

// RosterItem is one owned entity together with its buyout clause, when the
// hub reports one.
type RosterItem struct {
	Entity entity.Entity
	Clause *market.Clause
}

type SaveLineupRequest struct {
	LeagueID string
	Payload  lineup.Payload
	// GPIndex targets a historical or admin save; nil saves the next GP.
	GPIndex *int
}

type SaveLineupResult struct {
	GPName   string
	IsNextGP bool
}

type PlaceBidRequest struct {
	LeagueID string
	Bid      market.Bid
}

// ValidationError is a rejection reported by the hub on an otherwise
// well-formed request. The message is the hub's own, verbatim; callers keep
// their local state so the user can correct and resubmit.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
