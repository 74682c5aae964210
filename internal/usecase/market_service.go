package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/apexfantasy/paddock/internal/domain/market"
	"github.com/apexfantasy/paddock/internal/domain/user"
	"github.com/apexfantasy/paddock/internal/platform/cache"
	"github.com/apexfantasy/paddock/internal/platform/countdown"
)

const marketSweepWorkers = 8

// AuctionView decorates a hub auction with the countdown fields the market
// page renders. Remaining and its formatting are computed from the service
// clock at snapshot time; live updates come from the shared scheduler.
type AuctionView struct {
	Auction   market.Auction
	Remaining time.Duration
	Display   string
	Band      countdown.Band
	Expired   bool
	CanBid    bool
}

// MarketService serves the auction market: cached reads from the hub, live
// per-card countdowns on the shared scheduler, and bid placement gated
// locally before any network call.
type MarketService struct {
	hub       HubClient
	cache     *cache.Store
	scheduler *countdown.Scheduler
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	timers map[string]*countdown.Countdown
}

func NewMarketService(hub HubClient, store *cache.Store, scheduler *countdown.Scheduler, logger *slog.Logger) *MarketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketService{
		hub:       hub,
		cache:     store,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
		timers:    make(map[string]*countdown.Countdown),
	}
}

// Market returns the league's active auctions with countdown decoration.
// Reads go through the TTL cache; concurrent misses collapse upstream.
func (s *MarketService) Market(ctx context.Context, session user.Session, leagueID string) ([]AuctionView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MarketService.Market")
	defer span.End()

	session, leagueID, err := validateSessionLeague(session, leagueID)
	if err != nil {
		return nil, err
	}

	key := "market::" + session.Key(leagueID)
	loaded, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		auctions, loadErr := s.hub.Market(ctx, session, leagueID)
		if loadErr != nil {
			return nil, loadErr
		}
		s.trackCountdowns(auctions)
		return auctions, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch market: %w", err)
	}

	auctions, ok := loaded.([]market.Auction)
	if !ok {
		return nil, fmt.Errorf("unexpected market cache payload type %T", loaded)
	}

	now := s.now()
	views := make([]AuctionView, 0, len(auctions))
	for _, auction := range auctions {
		views = append(views, s.decorate(auction, now))
	}
	return views, nil
}

// PlaceBid forwards a bid after the local gate passes. An expired auction is
// rejected without a hub call.
func (s *MarketService) PlaceBid(ctx context.Context, session user.Session, leagueID string, bid market.Bid) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MarketService.PlaceBid")
	defer span.End()

	session, leagueID, err := validateSessionLeague(session, leagueID)
	if err != nil {
		return err
	}
	bid.AuctionID = strings.TrimSpace(bid.AuctionID)
	if err := bid.ValidateBasic(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if auction, ok := s.findCached(ctx, session, leagueID, bid.AuctionID); ok {
		if !auction.CanBid(s.now(), false) {
			return fmt.Errorf("%w: auction %s has expired", ErrInvalidInput, bid.AuctionID)
		}
	}

	if err := s.hub.PlaceBid(ctx, session, PlaceBidRequest{LeagueID: leagueID, Bid: bid}); err != nil {
		s.logger.WarnContext(ctx, "bid rejected", "auction_id", bid.AuctionID, "error", err)
		return err
	}

	// the market snapshot is stale the moment a bid lands
	s.cache.Delete(ctx, "market::"+session.Key(leagueID))
	s.logger.InfoContext(ctx, "bid placed", "auction_id", bid.AuctionID, "amount", bid.Amount)
	return nil
}

// Run sweeps tracked auctions on the given cadence until ctx is done,
// fanning the expiry evaluation out over a worker pool and dropping timers
// of auctions that have closed.
func (s *MarketService) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	pool, err := ants.NewPool(marketSweepWorkers)
	if err != nil {
		return fmt.Errorf("create sweep worker pool: %w", err)
	}
	defer pool.Release()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx, pool)
		}
	}
}

func (s *MarketService) sweep(ctx context.Context, pool *ants.Pool) {
	s.mu.Lock()
	batch := make(map[string]*countdown.Countdown, len(s.timers))
	for id, timer := range s.timers {
		batch[id] = timer
	}
	s.mu.Unlock()

	var workers sync.WaitGroup
	for id, timer := range batch {
		id, timer := id, timer
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if timer.State() == countdown.StateExpired {
				s.dropTimer(id)
			}
		}); err != nil {
			workers.Done()
			s.logger.WarnContext(ctx, "sweep task submit failed", "auction_id", id, "error", err)
		}
	}
	workers.Wait()
}

// trackCountdowns registers a per-second countdown for every auction not
// yet tracked. Expired auctions are skipped; closed ones are reaped by Run.
func (s *MarketService) trackCountdowns(auctions []market.Auction) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, auction := range auctions {
		if _, tracked := s.timers[auction.ID]; tracked {
			continue
		}
		if auction.Expired(now) {
			continue
		}
		timer, err := countdown.New(countdown.Config{
			Expiry: auction.ExpiresAt,
			Policy: countdown.PolicyPerSecond,
		})
		if err != nil {
			continue
		}
		s.timers[auction.ID] = timer
		if s.scheduler != nil {
			s.scheduler.Register(timer)
		}
	}
}

func (s *MarketService) dropTimer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		if s.scheduler != nil {
			s.scheduler.Unregister(timer)
		}
		delete(s.timers, id)
	}
}

// TrackedAuctions reports how many auction timers are live.
func (s *MarketService) TrackedAuctions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *MarketService) decorate(auction market.Auction, now time.Time) AuctionView {
	remaining := auction.ExpiresAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return AuctionView{
		Auction:   auction,
		Remaining: remaining,
		Display:   countdown.Format(remaining),
		Band:      countdown.BandFor(remaining),
		Expired:   auction.Expired(now),
		CanBid:    auction.CanBid(now, false),
	}
}

func (s *MarketService) findCached(ctx context.Context, session user.Session, leagueID, auctionID string) (market.Auction, bool) {
	loaded, ok := s.cache.Get(ctx, "market::"+session.Key(leagueID))
	if !ok {
		return market.Auction{}, false
	}
	auctions, ok := loaded.([]market.Auction)
	if !ok {
		return market.Auction{}, false
	}
	for _, auction := range auctions {
		if auction.ID == auctionID {
			return auction, true
		}
	}
	return market.Auction{}, false
}
