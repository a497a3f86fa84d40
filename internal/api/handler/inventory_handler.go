package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/sweetshop-api/internal/api/metrics"
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

const (
	// IdempotencyKeyHeader is the optional client key for purchase and restock.
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayedHeader is set on responses served from an already used key.
	ReplayedHeader = "Idempotent-Replayed"

	maxIdempotencyKeyLen = 128
)

type InventoryHandler struct {
	service ports.InventoryService
}

func NewInventoryHandler(service ports.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// Purchase handles POST /api/sweets/:id/purchase.
//
// @Summary      Purchase a sweet
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id               path      string              true   "Sweet ObjectID"
// @Param        Idempotency-Key  header    string              false  "Client key; a repeated key does not change stock twice"
// @Param        body             body      stockChangeRequest  true   "Quantity"
// @Success      200              {object}  sweetResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Router       /api/sweets/{id}/purchase [post]
func (h *InventoryHandler) Purchase(c echo.Context) error {
	return h.change(c, domain.MovementPurchase, h.service.Purchase, "Purchase successful")
}

// Restock handles POST /api/sweets/:id/restock.
//
// @Summary      Restock a sweet
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id               path      string              true   "Sweet ObjectID"
// @Param        Idempotency-Key  header    string              false  "Client key; a repeated key does not change stock twice"
// @Param        body             body      stockChangeRequest  true   "Quantity"
// @Success      200              {object}  sweetResponse
// @Failure      400              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Router       /api/sweets/{id}/restock [post]
func (h *InventoryHandler) Restock(c echo.Context) error {
	return h.change(c, domain.MovementRestock, h.service.Restock, "Restock successful")
}

// Movements handles GET /api/sweets/:id/movements.
//
// @Summary      Stock ledger of a sweet
// @Tags         inventory
// @Produce      json
// @Security     CookieAuth
// @Param        id     path      string  true   "Sweet ObjectID"
// @Param        limit  query     int     false  "Max entries (default 50, max 200)"
// @Success      200    {object}  movementListResponse
// @Failure      400    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /api/sweets/{id}/movements [get]
func (h *InventoryHandler) Movements(c echo.Context) error {
	limit := 0
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return domain.NewValidationError("limit", "limit must be a positive integer")
		}
		limit = v
	}

	movements, err := h.service.Movements(c.Request().Context(), principal(c), c.Param("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, movementListResponse{Movements: movements})
}

type stockChangeFunc func(ctx context.Context, p domain.Principal, in ports.StockChangeInput) (*ports.StockChangeResult, error)

func (h *InventoryHandler) change(c echo.Context, kind domain.MovementKind, op stockChangeFunc, message string) error {
	var req stockChangeRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("", "invalid payload")
	}
	quantity, err := parseQuantity(req.Quantity)
	if err != nil {
		metrics.StockChangesTotal.WithLabelValues(string(kind), "invalid_quantity").Inc()
		return err
	}

	key := strings.TrimSpace(c.Request().Header.Get(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLen {
		return domain.NewValidationError(IdempotencyKeyHeader, "Idempotency-Key is too long")
	}

	res, err := op(c.Request().Context(), principal(c), ports.StockChangeInput{
		SweetID:        c.Param("id"),
		Quantity:       quantity,
		IdempotencyKey: key,
	})
	if err != nil {
		failure := stockFailure(err)
		if failure == "conflict" {
			metrics.IdempotencyChecksTotal.WithLabelValues("conflict").Inc()
		}
		metrics.StockChangesTotal.WithLabelValues(string(kind), failure).Inc()
		return err
	}

	if key != "" {
		if res.Replayed {
			metrics.IdempotencyChecksTotal.WithLabelValues("hit").Inc()
		} else {
			metrics.IdempotencyChecksTotal.WithLabelValues("miss").Inc()
		}
	}

	if res.Replayed {
		metrics.StockChangesTotal.WithLabelValues(string(kind), "replayed").Inc()
		c.Response().Header().Set(ReplayedHeader, "true")
	} else {
		metrics.StockChangesTotal.WithLabelValues(string(kind), "ok").Inc()
		metrics.UnitsMovedTotal.WithLabelValues(string(kind), res.Sweet.Category).Add(float64(quantity))
		if kind == domain.MovementPurchase && res.Sweet.Stock == 0 {
			metrics.SoldOutTotal.Inc()
		}
	}

	return c.JSON(http.StatusOK, sweetResponse{Message: message, Sweet: res.Sweet})
}

// parseQuantity accepts only positive whole JSON numbers. Strings, fractions,
// booleans and missing values are all an invalid quantity.
func parseQuantity(v any) (int, error) {
	f, ok := v.(float64)
	if !ok || f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, domain.ErrInvalidQuantity
	}
	return int(f), nil
}

func stockFailure(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrSweetNotFound), errors.Is(err, domain.ErrInvalidID):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrIdempotencyInFlight), errors.Is(err, domain.ErrIdempotencyMismatch):
		return "conflict"
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrForbidden):
		return "denied"
	default:
		return "error"
	}
}
