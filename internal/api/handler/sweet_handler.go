package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

// SweetHandler handles HTTP requests for the sweet catalog.
type SweetHandler struct {
	service ports.CatalogService
}

func NewSweetHandler(service ports.CatalogService) *SweetHandler {
	return &SweetHandler{service: service}
}

// List handles GET /api/sweets.
//
// @Summary      List all sweets
// @Tags         sweets
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  sweetListResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/sweets [get]
func (h *SweetHandler) List(c echo.Context) error {
	sweets, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweetListResponse{Sweets: sweets})
}

// Search handles GET /api/sweets/search.
//
// @Summary      Search sweets
// @Tags         sweets
// @Produce      json
// @Security     CookieAuth
// @Param        name      query     string  false  "Case-insensitive substring of the name"
// @Param        category  query     string  false  "Exact category"
// @Param        priceMin  query     number  false  "Minimum price (alias minPrice)"
// @Param        priceMax  query     number  false  "Maximum price (alias maxPrice)"
// @Success      200       {object}  sweetListResponse
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Router       /api/sweets/search [get]
func (h *SweetHandler) Search(c echo.Context) error {
	filter, err := parseSweetFilter(c)
	if err != nil {
		return err
	}

	sweets, err := h.service.Search(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweetListResponse{Sweets: sweets})
}

// Get handles GET /api/sweets/:id.
//
// @Summary      Get a sweet
// @Tags         sweets
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      string  true  "Sweet ObjectID"
// @Success      200  {object}  domain.Sweet
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/sweets/{id} [get]
func (h *SweetHandler) Get(c echo.Context) error {
	sweet, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweet)
}

// Create handles POST /api/sweets.
//
// @Summary      Create a sweet
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      createSweetRequest  true  "Sweet"
// @Success      201   {object}  sweetResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/sweets [post]
func (h *SweetHandler) Create(c echo.Context) error {
	var req createSweetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sweet, err := h.service.Create(c.Request().Context(), principal(c), ports.CreateSweetInput{
		Name:        *req.Name,
		Category:    *req.Category,
		Price:       *req.Price,
		Stock:       *req.Stock,
		Description: req.Description,
		Ingredients: req.Ingredients,
		ImageURL:    req.ImageURL,
		Rating:      req.Rating,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sweetResponse{Message: "Sweet created", Sweet: sweet})
}

// Update handles PUT /api/sweets/:id.
//
// @Summary      Update a sweet
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      string              true  "Sweet ObjectID"
// @Param        body  body      updateSweetRequest  true  "Fields to change"
// @Success      200   {object}  sweetResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/sweets/{id} [put]
func (h *SweetHandler) Update(c echo.Context) error {
	var req updateSweetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sweet, err := h.service.Update(c.Request().Context(), principal(c), c.Param("id"), req.toPatch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweetResponse{Message: "Sweet updated", Sweet: sweet})
}

// Delete handles DELETE /api/sweets/:id.
//
// @Summary      Delete a sweet
// @Tags         sweets
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      string  true  "Sweet ObjectID"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/sweets/{id} [delete]
func (h *SweetHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), principal(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Sweet deleted"})
}

func parseSweetFilter(c echo.Context) (domain.SweetFilter, error) {
	filter := domain.SweetFilter{
		Name:     strings.TrimSpace(c.QueryParam("name")),
		Category: strings.TrimSpace(c.QueryParam("category")),
	}

	var err error
	if filter.PriceMin, err = priceParam(c, "priceMin", "minPrice"); err != nil {
		return filter, err
	}
	if filter.PriceMax, err = priceParam(c, "priceMax", "maxPrice"); err != nil {
		return filter, err
	}
	return filter, nil
}

// priceParam reads the first non-empty query parameter among names.
func priceParam(c echo.Context, names ...string) (*float64, error) {
	for _, name := range names {
		raw := strings.TrimSpace(c.QueryParam(name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, domain.NewValidationError(name, name+" must be a number")
		}
		return &v, nil
	}
	return nil, nil
}
