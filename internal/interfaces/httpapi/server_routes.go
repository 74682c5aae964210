package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerLeagueRoutes(mux *http.ServeMux, handler *Handler) {
	registerLineupRoutes(mux, handler)
	registerMarketRoutes(mux, handler)
	registerTeamRoutes(mux, handler)
}

func registerLineupRoutes(mux *http.ServeMux, handler *Handler) {
	mux.Handle("GET /v1/leagues/{leagueID}/lineup/board", RequireSession(http.HandlerFunc(handler.GetLineupBoard)))
	mux.Handle("POST /v1/leagues/{leagueID}/lineup/board/reload", RequireSession(http.HandlerFunc(handler.ReloadLineupBoard)))
	mux.Handle("POST /v1/leagues/{leagueID}/lineup/assign", RequireSession(http.HandlerFunc(handler.AssignLineupSlot)))
	mux.Handle("POST /v1/leagues/{leagueID}/lineup/unassign", RequireSession(http.HandlerFunc(handler.UnassignLineupSlot)))
	mux.Handle("POST /v1/leagues/{leagueID}/lineup/clear", RequireSession(http.HandlerFunc(handler.ClearLineupBoard)))
	mux.Handle("POST /v1/leagues/{leagueID}/lineup/save", RequireSession(http.HandlerFunc(handler.SaveLineup)))
	mux.Handle("GET /v1/leagues/{leagueID}/lineup/available", RequireSession(http.HandlerFunc(handler.ListAvailableForSlot)))
	mux.Handle("GET /v1/leagues/{leagueID}/lineup/history", RequireSession(http.HandlerFunc(handler.GetLineupHistory)))
	mux.Handle("GET /v1/leagues/{leagueID}/lineup/points", RequireSession(http.HandlerFunc(handler.GetLineupPoints)))
	mux.Handle("GET /v1/leagues/{leagueID}/lineup/element-points", RequireSession(http.HandlerFunc(handler.GetElementPoints)))
}

func registerMarketRoutes(mux *http.ServeMux, handler *Handler) {
	mux.Handle("GET /v1/leagues/{leagueID}/market", RequireSession(http.HandlerFunc(handler.GetMarket)))
	mux.Handle("POST /v1/leagues/{leagueID}/market/bids", RequireSession(http.HandlerFunc(handler.PlaceBid)))
}

func registerTeamRoutes(mux *http.ServeMux, handler *Handler) {
	mux.Handle("GET /v1/leagues/{leagueID}/team", RequireSession(http.HandlerFunc(handler.GetTeamPage)))
}
