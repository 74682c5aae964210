package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/apexfantasy/paddock/internal/domain/lineup"
	"github.com/apexfantasy/paddock/internal/domain/market"
	"github.com/apexfantasy/paddock/internal/domain/user"
)

// TeamPage aggregates everything the team screen shows in one shot.
type TeamPage struct {
	Roster        []RosterItem
	CurrentLineup lineup.Payload
	Auctions      []market.Auction
	ActiveClauses int
}

// TeamService composes the team page from independent hub reads.
type TeamService struct {
	hub    HubClient
	logger *slog.Logger
	now    func() time.Time
}

func NewTeamService(hub HubClient, logger *slog.Logger) *TeamService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TeamService{
		hub:    hub,
		logger: logger,
		now:    time.Now,
	}
}

// TeamPage fetches roster, current lineup and market concurrently. The three
// reads are independent; the first failure cancels the rest.
func (s *TeamService) TeamPage(ctx context.Context, session user.Session, leagueID string) (TeamPage, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.TeamPage")
	defer span.End()

	session, leagueID, err := validateSessionLeague(session, leagueID)
	if err != nil {
		return TeamPage{}, err
	}

	var page TeamPage
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		roster, fetchErr := s.hub.Roster(ctx, session, leagueID)
		if fetchErr != nil {
			return fmt.Errorf("fetch roster: %w", fetchErr)
		}
		page.Roster = roster
		return nil
	})
	p.Go(func(ctx context.Context) error {
		current, fetchErr := s.hub.CurrentLineup(ctx, session, leagueID)
		if fetchErr != nil {
			return fmt.Errorf("fetch current lineup: %w", fetchErr)
		}
		page.CurrentLineup = current
		return nil
	})
	p.Go(func(ctx context.Context) error {
		auctions, fetchErr := s.hub.Market(ctx, session, leagueID)
		if fetchErr != nil {
			return fmt.Errorf("fetch market: %w", fetchErr)
		}
		page.Auctions = auctions
		return nil
	})
	if err := p.Wait(); err != nil {
		return TeamPage{}, err
	}

	now := s.now()
	for _, item := range page.Roster {
		if item.Clause != nil && item.Clause.Active(now) {
			page.ActiveClauses++
		}
	}
	return page, nil
}
