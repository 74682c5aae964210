package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/apexfantasy/paddock/internal/domain/market"
	"github.com/apexfantasy/paddock/internal/usecase"
)

type auctionViewDTO struct {
	ID               string    `json:"id"`
	Entity           entityDTO `json:"entity"`
	CurrentBid       int64     `json:"current_bid"`
	Value            int64     `json:"value"`
	FIAOffer         int64     `json:"fia_offer,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	Display          string    `json:"display"`
	Band             string    `json:"band"`
	Expired          bool      `json:"expired"`
	CanBid           bool      `json:"can_bid"`
}

type placeBidRequest struct {
	AuctionID string `json:"auction_id" validate:"required"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
}

func (h *Handler) GetMarket(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMarket")
	defer span.End()

	session, err := requireSessionFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	views, err := h.marketService.Market(ctx, session, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get market failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]auctionViewDTO, 0, len(views))
	for _, view := range views {
		items = append(items, auctionViewToDTO(view))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlaceBid")
	defer span.End()

	session, err := requireSessionFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	var req placeBidRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	err = h.marketService.PlaceBid(ctx, session, leagueID, market.Bid{
		AuctionID: req.AuctionID,
		Amount:    req.Amount,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "place bid failed", "league_id", leagueID, "auction_id", req.AuctionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func auctionViewToDTO(view usecase.AuctionView) auctionViewDTO {
	return auctionViewDTO{
		ID:               view.Auction.ID,
		Entity:           entityToDTO(view.Auction.Entity),
		CurrentBid:       view.Auction.CurrentBid,
		Value:            view.Auction.Value,
		FIAOffer:         view.Auction.FIAOffer,
		ExpiresAt:        view.Auction.ExpiresAt,
		RemainingSeconds: int64(view.Remaining / time.Second),
		Display:          view.Display,
		Band:             string(view.Band),
		Expired:          view.Expired,
		CanBid:           view.CanBid,
	}
}
