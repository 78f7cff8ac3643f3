package handlers

import (
	"context"
	"net/http"

	"article-interactions/application/ports"
	"article-interactions/domain/interaction"
	"article-interactions/pkg/common"
	"article-interactions/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	defaultTopLimit  = 10
	defaultScanLimit = 100
)

// InteractionService is the part of the application service the handlers use
type InteractionService interface {
	ApplyInteraction(ctx context.Context, articleID, theme string, thumbsUp, thumbsDown, neutral int64) (*interaction.Interaction, error)
	ListInteractionsForArticle(ctx context.Context, articleID string) ([]interaction.Interaction, error)
	TopThemesByInteraction(ctx context.Context, articleID string, limit int) ([]interaction.RankedTheme, error)
	TopThemesWithDetails(ctx context.Context, articleID string, limit int) ([]interaction.Interaction, error)
	FetchRowsByKeys(ctx context.Context, keys []interaction.Key) (*interaction.BatchResult, error)
	ScanAll(ctx context.Context, limit int) ([]interaction.Interaction, error)
	Health(ctx context.Context) (*ports.TableStatus, error)
}

// InteractionHandler handles interaction-related HTTP requests
type InteractionHandler struct {
	service      InteractionService
	errorHandler *errors.ErrorHandler
	logger       *zap.Logger
}

// NewInteractionHandler creates a new interaction handler
func NewInteractionHandler(service InteractionService, errorHandler *errors.ErrorHandler, logger *zap.Logger) *InteractionHandler {
	return &InteractionHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// ApplyInteractionRequest is the body of an apply call. Omitted counters count as zero.
type ApplyInteractionRequest struct {
	ThumbsUp   int64 `json:"thumbsUp"`
	ThumbsDown int64 `json:"thumbsDown"`
	Neutral    int64 `json:"neutral"`
}

// BatchGetRequest lists the rows to fetch
type BatchGetRequest struct {
	Keys []interaction.Key `json:"keys"`
}

// ApplyInteraction handles POST /api/v1/articles/{articleID}/themes/{theme}/interactions
func (h *InteractionHandler) ApplyInteraction(w http.ResponseWriter, r *http.Request) {
	var req ApplyInteractionRequest
	if err := common.ParseJSONBody(w, r, &req, common.MaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	row, err := h.service.ApplyInteraction(r.Context(),
		chi.URLParam(r, "articleID"), chi.URLParam(r, "theme"),
		req.ThumbsUp, req.ThumbsDown, req.Neutral)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, row)
}

// ListInteractions handles GET /api/v1/articles/{articleID}/interactions
func (h *InteractionHandler) ListInteractions(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListInteractionsForArticle(r.Context(), chi.URLParam(r, "articleID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if rows == nil {
		rows = []interaction.Interaction{}
	}

	common.RespondWithMeta(w, http.StatusOK, rows, common.ListMeta(middleware.GetReqID(r.Context()), len(rows)))
}

// TopThemes handles GET /api/v1/articles/{articleID}/top?limit=N&details=bool
func (h *InteractionHandler) TopThemes(w http.ResponseWriter, r *http.Request) {
	limit, err := common.QueryInt(r, "limit", defaultTopLimit)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	details, err := common.QueryBool(r, "details", false)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	articleID := chi.URLParam(r, "articleID")
	requestID := middleware.GetReqID(r.Context())

	if details {
		rows, err := h.service.TopThemesWithDetails(r.Context(), articleID, limit)
		if err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
		if rows == nil {
			rows = []interaction.Interaction{}
		}
		common.RespondWithMeta(w, http.StatusOK, rows, common.ListMeta(requestID, len(rows)))
		return
	}

	ranked, err := h.service.TopThemesByInteraction(r.Context(), articleID, limit)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if ranked == nil {
		ranked = []interaction.RankedTheme{}
	}
	common.RespondWithMeta(w, http.StatusOK, ranked, common.ListMeta(requestID, len(ranked)))
}

// BatchGet handles POST /api/v1/interactions/batch-get
func (h *InteractionHandler) BatchGet(w http.ResponseWriter, r *http.Request) {
	var req BatchGetRequest
	if err := common.ParseJSONBody(w, r, &req, common.MaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.service.FetchRowsByKeys(r.Context(), req.Keys)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if result.Rows == nil {
		result.Rows = []interaction.Interaction{}
	}
	if result.Unprocessed == nil {
		result.Unprocessed = []interaction.Key{}
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// Scan handles GET /api/v1/interactions?limit=N
func (h *InteractionHandler) Scan(w http.ResponseWriter, r *http.Request) {
	limit, err := common.QueryInt(r, "limit", defaultScanLimit)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	rows, err := h.service.ScanAll(r.Context(), limit)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if rows == nil {
		rows = []interaction.Interaction{}
	}

	common.RespondWithMeta(w, http.StatusOK, rows, common.ListMeta(middleware.GetReqID(r.Context()), len(rows)))
}

// Health reports whether the table can be described
func (h *InteractionHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Health(r.Context())
	if err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"table":  status,
	})
}
