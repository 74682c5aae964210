package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/apexfantasy/paddock/internal/domain/user"
	"github.com/apexfantasy/paddock/internal/usecase"
)

type Handler struct {
	lineupService *usecase.LineupService
	marketService *usecase.MarketService
	teamService   *usecase.TeamService
	logger        *slog.Logger
	validator     *validator.Validate
}

func NewHandler(
	lineupService *usecase.LineupService,
	marketService *usecase.MarketService,
	teamService *usecase.TeamService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		lineupService: lineupService,
		marketService: marketService,
		teamService:   teamService,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func requireSessionFromContext(ctx context.Context) (user.Session, error) {
	session, ok := sessionFromContext(ctx)
	if !ok {
		return user.Session{}, fmt.Errorf("%w: session is missing from request context", usecase.ErrUnauthorized)
	}
	return session, nil
}

func decodeRequest(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}
