package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/apexfantasy/paddock/internal/domain/lineup"
	"github.com/apexfantasy/paddock/internal/usecase"
)

type teamPageDTO struct {
	Roster        []rosterItemDTO `json:"roster"`
	CurrentLineup lineup.Payload  `json:"current_lineup"`
	Auctions      []auctionDTO    `json:"auctions"`
	ActiveClauses int             `json:"active_clauses"`
}

type rosterItemDTO struct {
	Entity entityDTO  `json:"entity"`
	Clause *clauseDTO `json:"clause,omitempty"`
}

type clauseDTO struct {
	EntityID  string    `json:"entity_id"`
	Price     int64     `json:"price"`
	ExpiresAt time.Time `json:"expires_at"`
}

type auctionDTO struct {
	ID         string    `json:"id"`
	Entity     entityDTO `json:"entity"`
	CurrentBid int64     `json:"current_bid"`
	Value      int64     `json:"value"`
	FIAOffer   int64     `json:"fia_offer,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (h *Handler) GetTeamPage(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamPage")
	defer span.End()

	session, err := requireSessionFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	page, err := h.teamService.TeamPage(ctx, session, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team page failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamPageToDTO(page))
}

func teamPageToDTO(page usecase.TeamPage) teamPageDTO {
	roster := make([]rosterItemDTO, 0, len(page.Roster))
	for _, item := range page.Roster {
		dto := rosterItemDTO{Entity: entityToDTO(item.Entity)}
		if item.Clause != nil {
			dto.Clause = &clauseDTO{
				EntityID:  item.Clause.EntityID,
				Price:     item.Clause.Price,
				ExpiresAt: item.Clause.ExpiresAt,
			}
		}
		roster = append(roster, dto)
	}

	auctions := make([]auctionDTO, 0, len(page.Auctions))
	for _, auction := range page.Auctions {
		auctions = append(auctions, auctionDTO{
			ID:         auction.ID,
			Entity:     entityToDTO(auction.Entity),
			CurrentBid: auction.CurrentBid,
			Value:      auction.Value,
			FIAOffer:   auction.FIAOffer,
			ExpiresAt:  auction.ExpiresAt,
		})
	}

	return teamPageDTO{
		Roster:        roster,
		CurrentLineup: page.CurrentLineup,
		Auctions:      auctions,
		ActiveClauses: page.ActiveClauses,
	}
}
