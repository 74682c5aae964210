package leaguehub

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/apexfantasy/paddock/internal/domain/entity"
	"github.com/apexfantasy/paddock/internal/domain/lineup"
	"github.com/apexfantasy/paddock/internal/domain/market"
	"github.com/apexfantasy/paddock/internal/domain/user"
	"github.com/apexfantasy/paddock/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, server
}

func testSession() user.Session {
	return user.Session{UserID: "mgr-1", Token: "token-abc"}
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatal("expected error for empty base url")
	}
	if _, err := NewClient(ClientConfig{BaseURL: "ftp://hub"}); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}

func TestSaveLineupSuccess(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotBody saveLineupBody
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/lineup/save" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := decodeBody(r, &gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"gp_name":"GP de Mónaco","is_next_gp":true}`))
	})

	tc := "tc-1"
	result, err := client.SaveLineup(context.Background(), testSession(), usecase.SaveLineupRequest{
		LeagueID: "lg-1",
		Payload: lineup.Payload{
			RacePilots:      []string{"r1", "r2"},
			TeamConstructor: &tc,
		},
	})
	if err != nil {
		t.Fatalf("save lineup: %v", err)
	}
	if result.GPName != "GP de Mónaco" || !result.IsNextGP {
		t.Fatalf("unexpected result %+v", result)
	}
	if gotAuth != "Bearer token-abc" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if gotBody.LeagueID != "lg-1" || gotBody.GPIndex != nil {
		t.Fatalf("unexpected body %+v", gotBody)
	}
	if len(gotBody.Payload.RacePilots) != 2 {
		t.Fatalf("race pilots not forwarded, body %+v", gotBody.Payload)
	}
}

func TestSaveLineupValidationErrorPassesThroughVerbatim(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"debes indicar el gran premio"}`))
	})

	_, err := client.SaveLineup(context.Background(), testSession(), usecase.SaveLineupRequest{LeagueID: "lg-1"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validationErr *usecase.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if validationErr.Message != "debes indicar el gran premio" {
		t.Fatalf("message altered: %q", validationErr.Message)
	}
}

func TestGetStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, usecase.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, usecase.ErrUnauthorized},
		{"not found", http.StatusNotFound, usecase.ErrNotFound},
		{"server error", http.StatusInternalServerError, usecase.ErrDependencyUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})

			_, err := client.CurrentLineup(context.Background(), testSession(), "lg-1")
			if !errors.Is(err, tc.want) {
				t.Fatalf("status %d mapped to %v, want %v", tc.status, err, tc.want)
			}
		})
	}
}

func TestMarketDecodesDuckTypedItems(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/market" || r.URL.Query().Get("league_id") != "lg-1" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"auc-1","current_bid":100,"value":150,"fia_offer":120,"expires_at":"2026-03-01T12:00:00Z",
			 "entity":{"id":"p-1","session_mode":"race","name":"Pilot One","team_name":"Scuderia","value":150}},
			{"id":"auc-2","expires_at":"2026-03-01T12:00:00Z",
			 "entity":{"id":"ce-1","role":"chief","name":"Chief One","team_name":"Scuderia"}},
			{"id":"auc-3","expires_at":"2026-03-01T12:00:00Z",
			 "entity":{"id":"tc-1","is_team":true,"name":"Scuderia","team_name":"Scuderia"}},
			{"id":"auc-bad","expires_at":"2026-03-01T12:00:00Z",
			 "entity":{"id":"x-1","name":"Mystery"}}
		]`))
	})

	auctions, err := client.Market(context.Background(), testSession(), "lg-1")
	if err != nil {
		t.Fatalf("fetch market: %v", err)
	}
	if len(auctions) != 3 {
		t.Fatalf("expected 3 decodable auctions, got %d", len(auctions))
	}
	if auctions[0].Entity.Kind != entity.KindPilot || auctions[0].Entity.Mode != entity.ModeRace {
		t.Fatalf("pilot not resolved: %+v", auctions[0].Entity)
	}
	if auctions[1].Entity.Kind != entity.KindChiefEngineer {
		t.Fatalf("chief engineer not resolved: %+v", auctions[1].Entity)
	}
	if auctions[2].Entity.Kind != entity.KindTeamConstructor {
		t.Fatalf("constructor not resolved: %+v", auctions[2].Entity)
	}
	if auctions[0].FIAOffer != 120 {
		t.Fatalf("fia offer not mapped: %+v", auctions[0])
	}
}

func TestRosterMapsClauses(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"p-1","kind":"pilot","session_mode":"qualifying","name":"Pilot One","team_name":"Scuderia","value":90,
			 "clause":{"price":120,"expires_at":"2026-04-01T00:00:00Z"}},
			{"id":"te-1","kind":"track_engineer","name":"Track One","team_name":"Scuderia","value":40}
		]`))
	})

	roster, err := client.Roster(context.Background(), testSession(), "lg-1")
	if err != nil {
		t.Fatalf("fetch roster: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("expected 2 roster items, got %d", len(roster))
	}
	if roster[0].Clause == nil || roster[0].Clause.Price != 120 {
		t.Fatalf("clause not mapped: %+v", roster[0].Clause)
	}
	if roster[1].Clause != nil {
		t.Fatalf("unexpected clause on %+v", roster[1])
	}
}

func TestElementPointsConvertsGPKeys(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("element_id") != "p-1" {
			t.Errorf("element_id missing from query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entity_id":"p-1","per_gp":{"1":10,"2":-3,"bogus":7},"total":7}`))
	})

	points, err := client.ElementPoints(context.Background(), testSession(), "lg-1", "p-1")
	if err != nil {
		t.Fatalf("fetch element points: %v", err)
	}
	if points.PerGP[1] != 10 || points.PerGP[2] != -3 {
		t.Fatalf("per-gp points wrong: %+v", points.PerGP)
	}
	if len(points.PerGP) != 2 {
		t.Fatalf("non-numeric gp key kept: %+v", points.PerGP)
	}
}

func TestPlaceBidSendsSingleAttempt(t *testing.T) {
	t.Parallel()

	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.PlaceBid(context.Background(), testSession(), usecase.PlaceBidRequest{
		LeagueID: "lg-1",
		Bid:      market.Bid{AuctionID: "auc-1", Amount: 100},
	})
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected exactly one attempt, got %d", attempts)
	}
}

func decodeBody(r *http.Request, target any) error {
	defer func() { _ = r.Body.Close() }()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(raw, target)
}
