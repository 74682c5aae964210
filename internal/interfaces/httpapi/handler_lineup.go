package httpapi

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/apexfantasy/paddock/internal/domain/entity"
	"github.com/apexfantasy/paddock/internal/domain/gp"
	"github.com/apexfantasy/paddock/internal/domain/lineup"
	"github.com/apexfantasy/paddock/internal/usecase"
)

type boardViewDTO struct {
	Positions map[string][]string `json:"positions"`
	Lineup    lineup.Payload      `json:"lineup"`
	State     string              `json:"state"`
	Dirty     bool                `json:"dirty"`
}

type entityDTO struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	SessionMode string `json:"session_mode,omitempty"`
	Name        string `json:"name"`
	TeamName    string `json:"team_name,omitempty"`
	Value       int64  `json:"value"`
}

type assignSlotRequest struct {
	Category string `json:"category" validate:"required"`
	Position int    `json:"position" validate:"min=0"`
	EntityID string `json:"entity_id" validate:"required"`
}

type unassignSlotRequest struct {
	Category string `json:"category" validate:"required"`
	Position int    `json:"position" validate:"min=0"`
}

type saveLineupRequest struct {
	GPIndex *int `json:"gp_index" validate:"omitempty,min=0"`
}

type saveLineupResultDTO struct {
	GPName   string `json:"gp_name"`
	IsNextGP bool   `json:"is_next_gp"`
}

type historicalLineupDTO struct {
	GPIndex int            `json:"gp_index"`
	Lineup  lineup.Payload `json:"lineup"`
}

type lineupPointsDTO struct {
	GPIndex  int              `json:"gp_index"`
	Total    int64            `json:"total"`
	ByEntity map[string]int64 `json:"by_entity"`
}

type elementPointsDTO struct {
	EntityID string         `json:"entity_id"`
	PerGP    []gpPointsPair `json:"per_gp"`
	Total    int64          `json:"total"`
}

type gpPointsPair struct {
	GPIndex int   `json:"gp_index"`
	Points  int64 `json:"points"`
}

func (h *Handler) GetLineupBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLineupBoard")
	defer span.End()

	session, err := requireSessionFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	view, err := h.lineupService.Board(ctx, session, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get lineup board failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, boardViewToDTO(view))
}

func (h *Handler) ReloadLineupBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReloadLineupBoard")
	defer span.End()

	session, err := requireSessionFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	view, err := h.lineupService.Reload(ctx, session, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "reload lineup board failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, boardViewToDTO(view))
}

func (h *Handler) AssignLineupSlot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AssignLineupSlot")
	defer span.End()

	session, err := requireSessionFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	var req assignSlotRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.lineupService.Assign(ctx, session, leagueID, lineup.Category(req.Category), req.Position, req.EntityID)
	if err != nil {
		h.logger.WarnContext(ctx, "assign lineup slot failed", "league_id", leagueID, "category", req.Category, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, boardViewToDTO(view))
}

func (h *Handler) UnassignLineupSlot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UnassignLineupSlot")
	defer span.End()

	session, err := requireSessionFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	var req unassignSlotRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.lineupService.Unassign(ctx, session, leagueID, lineup.Category(req.Category), req.Position)
	if err != nil {
		h.logger.WarnContext(ctx, "unassign lineup slot failed", "league_id", leagueID, "category", req.Category, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, boardViewToDTO(view))
}

func (h *Handler) ClearLineupBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearLineupBoard")
	defer span.End()

	session, err := requireSessionFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	view, err := h.lineupService.Clear(ctx, session, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "clear lineup board failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, boardViewToDTO(view))
}

func (h *Handler) SaveLineup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SaveLineup")
	defer span.End()

	session, err := requireSessionFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	var req saveLineupRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.lineupService.Save(ctx, session, leagueID, req.GPIndex)
	if err != nil {
		h.logger.WarnContext(ctx, "save lineup failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, saveLineupResultDTO{
		GPName:   result.GPName,
		IsNextGP: result.IsNextGP,
	})
}

func (h *Handler) ListAvailableForSlot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAvailableForSlot")
	defer span.End()

	session, err := requireSessionFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	entities, err := h.lineupService.AvailableFor(ctx, session, leagueID, lineup.Category(category))
	if err != nil {
		h.logger.WarnContext(ctx, "list available entities failed", "league_id", leagueID, "category", category, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]entityDTO, 0, len(entities))
	for _, item := range entities {
		items = append(items, entityToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLineupHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLineupHistory")
	defer span.End()

	session, err := requireSessionFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	history, err := h.lineupService.History(ctx, session, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get lineup history failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]historicalLineupDTO, 0, len(history))
	for _, item := range history {
		items = append(items, historicalLineupDTO{GPIndex: item.GPIndex, Lineup: item.Payload})
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLineupPoints(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLineupPoints")
	defer span.End()

	session, err := requireSessionFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	rawIndex := strings.TrimSpace(r.URL.Query().Get("gp_index"))
	gpIndex, err := strconv.Atoi(rawIndex)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: gp_index must be an integer", usecase.ErrInvalidInput))
		return
	}

	points, err := h.lineupService.Points(ctx, session, leagueID, gpIndex)
	if err != nil {
		h.logger.WarnContext(ctx, "get lineup points failed", "league_id", leagueID, "gp_index", gpIndex, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lineupPointsDTO{
		GPIndex:  points.GPIndex,
		Total:    points.Total,
		ByEntity: points.ByEntity,
	})
}

func (h *Handler) GetElementPoints(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetElementPoints")
	defer span.End()

	session, err := requireSessionFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	elementID := strings.TrimSpace(r.URL.Query().Get("element_id"))
	points, err := h.lineupService.ElementPoints(ctx, session, leagueID, elementID)
	if err != nil {
		h.logger.WarnContext(ctx, "get element points failed", "league_id", leagueID, "element_id", elementID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, elementPointsToDTO(points))
}

func boardViewToDTO(view usecase.BoardView) boardViewDTO {
	positions := make(map[string][]string, len(view.Positions))
	for category, slots := range view.Positions {
		positions[string(category)] = slots
	}
	return boardViewDTO{
		Positions: positions,
		Lineup:    view.Payload,
		State:     string(view.State),
		Dirty:     view.Dirty,
	}
}

func entityToDTO(e entity.Entity) entityDTO {
	return entityDTO{
		ID:          e.ID,
		Kind:        string(e.Kind),
		SessionMode: string(e.Mode),
		Name:        e.Name,
		TeamName:    e.TeamName,
		Value:       e.Value,
	}
}

// elementPointsToDTO flattens the per-GP map into a slice sorted by GP index
// so the response order is stable.
func elementPointsToDTO(points gp.ElementPoints) elementPointsDTO {
	pairs := make([]gpPointsPair, 0, len(points.PerGP))
	for index, value := range points.PerGP {
		pairs = append(pairs, gpPointsPair{GPIndex: index, Points: value})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].GPIndex < pairs[j].GPIndex })

	return elementPointsDTO{
		EntityID: points.EntityID,
		PerGP:    pairs,
		Total:    points.Total,
	}
}
