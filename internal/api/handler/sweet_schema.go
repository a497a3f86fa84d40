package handler

import "github.com/sweetshop/sweetshop-api/internal/core/domain"

// createSweetRequest uses pointers so that an omitted field can be told apart
// from a zero value.
type createSweetRequest struct {
	Name        *string  `json:"name"        validate:"required"`
	Category    *string  `json:"category"    validate:"required"`
	Price       *float64 `json:"price"       validate:"required"`
	Stock       *int     `json:"stock"       validate:"required"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	ImageURL    string   `json:"imageUrl"`
	Rating      *float64 `json:"rating"`
	IsAvailable *bool    `json:"isAvailable"`
}

type updateSweetRequest struct {
	Name        *string   `json:"name"`
	Category    *string   `json:"category"`
	Price       *float64  `json:"price"`
	Description *string   `json:"description"`
	Ingredients *[]string `json:"ingredients"`
	Stock       *int      `json:"stock"`
	IsAvailable *bool     `json:"isAvailable"`
	ImageURL    *string   `json:"imageUrl"`
	Rating      *float64  `json:"rating"`
}

func (r updateSweetRequest) toPatch() domain.SweetPatch {
	p := domain.SweetPatch{
		Name:        r.Name,
		Category:    r.Category,
		Price:       r.Price,
		Description: r.Description,
		Stock:       r.Stock,
		IsAvailable: r.IsAvailable,
		ImageURL:    r.ImageURL,
		Rating:      r.Rating,
	}
	if r.Ingredients != nil {
		p.Ingredients = append([]string{}, (*r.Ingredients)...)
	}
	return p
}

// stockChangeRequest keeps quantity untyped so that strings, fractions and
// other non-integers are rejected as an invalid quantity instead of a
// malformed payload.
type stockChangeRequest struct {
	Quantity any `json:"quantity"`
}

type sweetListResponse struct {
	Sweets []*domain.Sweet `json:"sweets"`
}

type sweetResponse struct {
	Message string        `json:"message"`
	Sweet   *domain.Sweet `json:"sweet"`
}

type movementListResponse struct {
	Movements []*domain.StockMovement `json:"movements"`
}
