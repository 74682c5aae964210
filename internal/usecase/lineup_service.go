package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/apexfantasy/paddock/internal/domain/entity"
	"github.com/apexfantasy/paddock/internal/domain/gp"
	"github.com/apexfantasy/paddock/internal/domain/lineup"
	"github.com/apexfantasy/paddock/internal/domain/user"
)

// BoardView is a read snapshot of a live board for the presentation layer.
// Positions keeps empty slots addressable; Payload is the compacted save
// shape the hub accepts.
type BoardView struct {
	Positions map[lineup.Category][]string
	Payload   lineup.Payload
	State     lineup.BoardState
	Dirty     bool
}

// LineupService owns the lineup-editing flow: hydrate a board from the hub,
// apply slot edits locally, save back. Edits never touch the hub until Save;
// a failed save keeps the board intact for resubmission.
type LineupService struct {
	hub    HubClient
	boards lineup.BoardStore
	logger *slog.Logger
	now    func() time.Time
}

func NewLineupService(hub HubClient, boards lineup.BoardStore, logger *slog.Logger) *LineupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LineupService{
		hub:    hub,
		boards: boards,
		logger: logger,
		now:    time.Now,
	}
}

// Board returns the caller's live board for the league, hydrating it from
// the hub on first access.
func (s *LineupService) Board(ctx context.Context, session user.Session, leagueID string) (BoardView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LineupService.Board")
	defer span.End()

	board, err := s.board(ctx, session, leagueID)
	if err != nil {
		return BoardView{}, err
	}
	return snapshot(board), nil
}

// Reload discards the live board and rebuilds it from the hub, dropping any
// unsaved edits.
func (s *LineupService) Reload(ctx context.Context, session user.Session, leagueID string) (BoardView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LineupService.Reload")
	defer span.End()

	session, leagueID, err := validateSessionLeague(session, leagueID)
	if err != nil {
		return BoardView{}, err
	}
	if err := s.boards.Delete(ctx, session.Key(leagueID)); err != nil {
		return BoardView{}, fmt.Errorf("drop stale board: %w", err)
	}

	board, err := s.board(ctx, session, leagueID)
	if err != nil {
		return BoardView{}, err
	}
	return snapshot(board), nil
}

func (s *LineupService) Assign(ctx context.Context, session user.Session, leagueID string, category lineup.Category, position int, entityID string) (BoardView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LineupService.Assign")
	defer span.End()

	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return BoardView{}, fmt.Errorf("%w: entity_id is required", ErrInvalidInput)
	}

	board, err := s.board(ctx, session, leagueID)
	if err != nil {
		return BoardView{}, err
	}
	if err := board.Assign(category, position, entityID); err != nil {
		return BoardView{}, err
	}
	return snapshot(board), nil
}

func (s *LineupService) Unassign(ctx context.Context, session user.Session, leagueID string, category lineup.Category, position int) (BoardView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LineupService.Unassign")
	defer span.End()

	board, err := s.board(ctx, session, leagueID)
	if err != nil {
		return BoardView{}, err
	}
	if err := board.Unassign(category, position); err != nil {
		return BoardView{}, err
	}
	return snapshot(board), nil
}

func (s *LineupService) Clear(ctx context.Context, session user.Session, leagueID string) (BoardView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LineupService.Clear")
	defer span.End()

	board, err := s.board(ctx, session, leagueID)
	if err != nil {
		return BoardView{}, err
	}
	board.Clear()
	return snapshot(board), nil
}

func (s *LineupService) AvailableFor(ctx context.Context, session user.Session, leagueID string, category lineup.Category) ([]entity.Entity, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LineupService.AvailableFor")
	defer span.End()

	board, err := s.board(ctx, session, leagueID)
	if err != nil {
		return nil, err
	}
	return board.AvailableFor(category)
}

// Save pushes the board to the hub. The hub answers with the GP the lineup
// was stored for; only a confirmed save clears the dirty flag.
func (s *LineupService) Save(ctx context.Context, session user.Session, leagueID string, gpIndex *int) (SaveLineupResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LineupService.Save")
	defer span.End()

	board, err := s.board(ctx, session, leagueID)
	if err != nil {
		return SaveLineupResult{}, err
	}

	result, err := s.hub.SaveLineup(ctx, session, SaveLineupRequest{
		LeagueID: leagueID,
		Payload:  board.Serialize(),
		GPIndex:  gpIndex,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "lineup save rejected, board kept for resubmission", "league_id", leagueID, "error", err)
		return SaveLineupResult{}, err
	}

	board.MarkSaved()
	s.logger.InfoContext(ctx, "lineup saved", "league_id", leagueID, "gp_name", result.GPName, "is_next_gp", result.IsNextGP)
	return result, nil
}

func (s *LineupService) History(ctx context.Context, session user.Session, leagueID string) ([]lineup.Historical, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LineupService.History")
	defer span.End()

	session, leagueID, err := validateSessionLeague(session, leagueID)
	if err != nil {
		return nil, err
	}
	items, err := s.hub.LineupHistory(ctx, session, leagueID)
	if err != nil {
		return nil, fmt.Errorf("fetch lineup history: %w", err)
	}
	return items, nil
}

func (s *LineupService) Points(ctx context.Context, session user.Session, leagueID string, gpIndex int) (gp.Points, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LineupService.Points")
	defer span.End()

	session, leagueID, err := validateSessionLeague(session, leagueID)
	if err != nil {
		return gp.Points{}, err
	}
	if gpIndex < 0 {
		return gp.Points{}, fmt.Errorf("%w: gp_index must not be negative", ErrInvalidInput)
	}
	points, err := s.hub.LineupPoints(ctx, session, leagueID, gpIndex)
	if err != nil {
		return gp.Points{}, fmt.Errorf("fetch lineup points: %w", err)
	}
	return points, nil
}

func (s *LineupService) ElementPoints(ctx context.Context, session user.Session, leagueID, elementID string) (gp.ElementPoints, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LineupService.ElementPoints")
	defer span.End()

	session, leagueID, err := validateSessionLeague(session, leagueID)
	if err != nil {
		return gp.ElementPoints{}, err
	}
	elementID = strings.TrimSpace(elementID)
	if elementID == "" {
		return gp.ElementPoints{}, fmt.Errorf("%w: element_id is required", ErrInvalidInput)
	}
	points, err := s.hub.ElementPoints(ctx, session, leagueID, elementID)
	if err != nil {
		return gp.ElementPoints{}, fmt.Errorf("fetch element points: %w", err)
	}
	return points, nil
}

// board returns the stored live board, building it from the hub's roster
// and current lineup when the store has none.
func (s *LineupService) board(ctx context.Context, session user.Session, leagueID string) (*lineup.Board, error) {
	session, leagueID, err := validateSessionLeague(session, leagueID)
	if err != nil {
		return nil, err
	}

	key := session.Key(leagueID)
	board, ok, err := s.boards.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	if ok {
		return board, nil
	}

	roster, err := s.hub.Roster(ctx, session, leagueID)
	if err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}
	entities := make([]entity.Entity, 0, len(roster))
	for _, item := range roster {
		entities = append(entities, item.Entity)
	}
	board = lineup.NewBoard(entities)

	current, err := s.hub.CurrentLineup(ctx, session, leagueID)
	if err != nil {
		return nil, fmt.Errorf("fetch current lineup: %w", err)
	}
	if err := board.Hydrate(current); err != nil {
		// A lineup referencing sold entities still yields a usable board.
		s.logger.WarnContext(ctx, "current lineup does not fit roster, starting from empty board", "league_id", leagueID, "error", err)
	}

	if err := s.boards.Put(ctx, key, board); err != nil {
		return nil, fmt.Errorf("store board: %w", err)
	}
	return board, nil
}

func snapshot(board *lineup.Board) BoardView {
	return BoardView{
		Positions: board.Slots(),
		Payload:   board.Serialize(),
		State:     board.State(),
		Dirty:     board.Dirty(),
	}
}

func validateSessionLeague(session user.Session, leagueID string) (user.Session, string, error) {
	session.Token = strings.TrimSpace(session.Token)
	leagueID = strings.TrimSpace(leagueID)
	if session.Token == "" {
		return session, "", fmt.Errorf("%w: session token is required", ErrUnauthorized)
	}
	if leagueID == "" {
		return session, "", fmt.Errorf("%w: league_id is required", ErrInvalidInput)
	}
	return session, leagueID, nil
}
