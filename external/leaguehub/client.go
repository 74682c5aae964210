// Package leaguehub is the JSON-over-HTTP client to the league hub, the
// opaque backend that owns rosters, lineups, auctions and scoring. The hub's
// contract is deliberately thin: bearer-token auth, flat JSON bodies, and an
// {error} envelope on rejected writes. Every request is a single attempt;
// failures surface to the caller untouched.
package leaguehub

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/apexfantasy/paddock/internal/domain/gp"
	"github.com/apexfantasy/paddock/internal/domain/lineup"
	"github.com/apexfantasy/paddock/internal/domain/market"
	"github.com/apexfantasy/paddock/internal/domain/user"
	"github.com/apexfantasy/paddock/internal/platform/logging"
	"github.com/apexfantasy/paddock/internal/platform/resilience"
	"github.com/apexfantasy/paddock/internal/usecase"
)

const (
	pathLineupCurrent = "/api/lineup/current"
	pathLineupSave    = "/api/lineup/save"
	pathLineupHistory = "/api/lineup/history"
	pathLineupPoints  = "/api/lineup/points"
	pathElementPoints = "/api/lineup/element-points"
	pathMarket        = "/api/market"
	pathMarketBid     = "/api/market/bid"
	pathRoster        = "/api/roster"

	maxResponseBytes = 4 << 20
)

// ValidationError is re-exported so callers holding a *leaguehub.Client can
// match rejections without importing the service layer.
type ValidationError = usecase.ValidationError

var errHubTransient = crerr.New("league hub transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

var _ usecase.HubClient = (*Client)(nil)

func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, crerr.New("league hub base url is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, crerr.Wrapf(err, "parse league hub base url %q", baseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, crerr.Newf("league hub base url %q uses unsupported scheme %q", baseURL, parsed.Scheme)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		logger:         logger,
		breaker:        resilience.NewCircuitBreakerFromConfig(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}, nil
}

func (c *Client) Roster(ctx context.Context, session user.Session, leagueID string) ([]usecase.RosterItem, error) {
	var items []hubEntityDTO
	if err := c.getJSON(ctx, session, pathRoster, map[string]string{"league_id": leagueID}, &items); err != nil {
		return nil, fmt.Errorf("fetch roster league_id=%s: %w", leagueID, err)
	}

	out := make([]usecase.RosterItem, 0, len(items))
	for _, item := range items {
		e, err := item.toEntity()
		if err != nil {
			c.logger.WarnContext(ctx, "skip roster item with unrecognized shape", "item_id", item.ID, "error", err)
			continue
		}
		out = append(out, usecase.RosterItem{
			Entity: e,
			Clause: item.toClause(),
		})
	}
	return out, nil
}

func (c *Client) CurrentLineup(ctx context.Context, session user.Session, leagueID string) (lineup.Payload, error) {
	var payload lineup.Payload
	if err := c.getJSON(ctx, session, pathLineupCurrent, map[string]string{"league_id": leagueID}, &payload); err != nil {
		return lineup.Payload{}, fmt.Errorf("fetch current lineup league_id=%s: %w", leagueID, err)
	}
	return payload, nil
}

func (c *Client) SaveLineup(ctx context.Context, session user.Session, req usecase.SaveLineupRequest) (usecase.SaveLineupResult, error) {
	body := saveLineupBody{
		LeagueID: req.LeagueID,
		Payload:  req.Payload,
		GPIndex:  req.GPIndex,
	}

	var resp saveLineupResponse
	if err := c.postJSON(ctx, session, pathLineupSave, body, &resp); err != nil {
		return usecase.SaveLineupResult{}, fmt.Errorf("save lineup league_id=%s: %w", req.LeagueID, err)
	}

	return usecase.SaveLineupResult{
		GPName:   resp.GPName,
		IsNextGP: resp.IsNextGP,
	}, nil
}

func (c *Client) LineupHistory(ctx context.Context, session user.Session, leagueID string) ([]lineup.Historical, error) {
	var items []historyItemDTO
	if err := c.getJSON(ctx, session, pathLineupHistory, map[string]string{"league_id": leagueID}, &items); err != nil {
		return nil, fmt.Errorf("fetch lineup history league_id=%s: %w", leagueID, err)
	}

	out := make([]lineup.Historical, 0, len(items))
	for _, item := range items {
		out = append(out, lineup.Historical{
			GPIndex: item.GPIndex,
			Payload: item.Lineup,
		})
	}
	return out, nil
}

func (c *Client) LineupPoints(ctx context.Context, session user.Session, leagueID string, gpIndex int) (gp.Points, error) {
	query := map[string]string{
		"league_id": leagueID,
		"gp_index":  strconv.Itoa(gpIndex),
	}
	var dto pointsDTO
	if err := c.getJSON(ctx, session, pathLineupPoints, query, &dto); err != nil {
		return gp.Points{}, fmt.Errorf("fetch lineup points league_id=%s gp_index=%d: %w", leagueID, gpIndex, err)
	}

	return gp.Points{
		GPIndex:  dto.GPIndex,
		Total:    dto.Total,
		ByEntity: dto.ByEntity,
	}, nil
}

func (c *Client) ElementPoints(ctx context.Context, session user.Session, leagueID, elementID string) (gp.ElementPoints, error) {
	query := map[string]string{
		"league_id":  leagueID,
		"element_id": elementID,
	}
	var dto elementPointsDTO
	if err := c.getJSON(ctx, session, pathElementPoints, query, &dto); err != nil {
		return gp.ElementPoints{}, fmt.Errorf("fetch element points league_id=%s element_id=%s: %w", leagueID, elementID, err)
	}

	perGP := make(map[int]int64, len(dto.PerGP))
	for key, value := range dto.PerGP {
		index, convErr := strconv.Atoi(key)
		if convErr != nil {
			continue
		}
		perGP[index] = value
	}

	return gp.ElementPoints{
		EntityID: dto.EntityID,
		PerGP:    perGP,
		Total:    dto.Total,
	}, nil
}

func (c *Client) Market(ctx context.Context, session user.Session, leagueID string) ([]market.Auction, error) {
	var items []auctionDTO
	if err := c.getJSON(ctx, session, pathMarket, map[string]string{"league_id": leagueID}, &items); err != nil {
		return nil, fmt.Errorf("fetch market league_id=%s: %w", leagueID, err)
	}

	out := make([]market.Auction, 0, len(items))
	for _, item := range items {
		e, err := item.Entity.toEntity()
		if err != nil {
			c.logger.WarnContext(ctx, "skip market item with unrecognized shape", "auction_id", item.ID, "error", err)
			continue
		}
		expiresAt, err := parseHubTime(item.ExpiresAt)
		if err != nil {
			c.logger.WarnContext(ctx, "skip market item with bad expiry", "auction_id", item.ID, "error", err)
			continue
		}
		out = append(out, market.Auction{
			ID:         item.ID,
			Entity:     e,
			CurrentBid: item.CurrentBid,
			Value:      item.Value,
			FIAOffer:   item.FIAOffer,
			ExpiresAt:  expiresAt,
		})
	}
	return out, nil
}

func (c *Client) PlaceBid(ctx context.Context, session user.Session, req usecase.PlaceBidRequest) error {
	body := placeBidBody{
		LeagueID:  req.LeagueID,
		AuctionID: req.Bid.AuctionID,
		Amount:    req.Bid.Amount,
	}
	if err := c.postJSON(ctx, session, pathMarketBid, body, nil); err != nil {
		return fmt.Errorf("place bid auction_id=%s: %w", req.Bid.AuctionID, err)
	}
	return nil
}

// getJSON issues a deduplicated single-attempt GET. Concurrent identical
// reads for the same session collapse into one upstream call.
func (c *Client) getJSON(ctx context.Context, session user.Session, path string, query map[string]string, target any) error {
	if err := c.allow(ctx); err != nil {
		return err
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := flightKey(session, path, values.Encode())
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, http.MethodGet, fullURL, session, nil)
		c.recordCircuitResult(reqErr)
		return raw, reqErr
	})
	if err != nil {
		return c.finalize(err)
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode hub payload: %w", err)
	}
	return nil
}

// postJSON issues a single-attempt write. Writes are never deduplicated or
// retried; a failure leaves resubmission to the user.
func (c *Client) postJSON(ctx context.Context, session user.Session, path string, body any, target any) error {
	if err := c.allow(ctx); err != nil {
		return err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(body); err != nil {
		return crerr.Wrap(err, "marshal hub request body")
	}

	raw, err := c.executeRequest(ctx, http.MethodPost, c.baseURL+path, session, buf.Bytes())
	c.recordCircuitResult(err)
	if err != nil {
		return c.finalize(err)
	}

	if target == nil {
		return nil
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode hub payload: %w", err)
	}
	return nil
}

// executeRequest performs exactly one HTTP attempt and classifies the
// outcome: transport faults and 5xx become transient markers feeding the
// breaker, 4xx map onto the caller-facing taxonomy.
func (c *Client) executeRequest(ctx context.Context, method, fullURL string, session user.Session, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := strings.TrimSpace(session.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		callErr := fmt.Errorf("%w: send request: %s", errHubTransient, sanitizeSensitiveText(err.Error(), session.Token))
		c.logger.WarnContext(ctx, "league hub request failed", "method", method, "url", fullURL, "error", callErr)
		return nil, callErr
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errHubTransient, readErr)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: hub rejected session", usecase.ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: hub has no such resource", usecase.ErrNotFound)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		if message := extractHubError(raw); message != "" {
			return nil, &usecase.ValidationError{Message: message}
		}
		return nil, fmt.Errorf("hub status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	default:
		callErr := fmt.Errorf("%w: hub status=%d body=%s", errHubTransient, resp.StatusCode, abbreviateBody(raw))
		c.logger.WarnContext(ctx, "league hub request failed", "method", method, "url", fullURL, "status", resp.StatusCode)
		return nil, callErr
	}
}

func (c *Client) allow(ctx context.Context) error {
	if !c.circuitEnabled {
		return nil
	}
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "league hub circuit breaker rejected request", "state", c.breaker.State())
		return fmt.Errorf("%w: league hub is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	return nil
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err != nil && stderrors.Is(err, errHubTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

// finalize folds transient markers into the dependency-unavailable sentinel
// the service layer and error mapper understand.
func (c *Client) finalize(err error) error {
	if stderrors.Is(err, errHubTransient) {
		return crerr.Mark(err, usecase.ErrDependencyUnavailable)
	}
	return err
}

func flightKey(session user.Session, path, query string) string {
	h := fnv.New64a()
	h.Write([]byte(session.Token))
	return fmt.Sprintf("%x:%s?%s", h.Sum64(), path, query)
}

func extractHubError(raw []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return strings.TrimSpace(envelope.Error)
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return value
}

func abbreviateBody(raw []byte) string {
	const max = 512
	text := strings.TrimSpace(string(raw))
	if len(text) <= max {
		return text
	}
	return text[:max] + "...(truncated)"
}

func parseHubTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("expiry is empty")
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse expiry %q: %w", raw, err)
	}
	return parsed.UTC(), nil
}
