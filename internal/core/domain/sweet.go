package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	NameMinLen        = 2
	NameMaxLen        = 100
	CategoryMinLen    = 2
	CategoryMaxLen    = 50
	DescriptionMaxLen = 1000
	RatingMax         = 5
)

// Sweet is a catalog item sold by the shop.
type Sweet struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Ingredients []string  `json:"ingredients"`
	Stock       int       `json:"stock"`
	IsAvailable bool      `json:"isAvailable"`
	ImageURL    string    `json:"imageUrl"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ValidateQuantity rejects non-positive purchase and restock quantities.
func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// Purchase removes quantity units from stock. The sweet is left untouched on
// error. Reaching exactly zero marks the sweet unavailable.
func (s *Sweet) Purchase(quantity int) error {
	if err := ValidateQuantity(quantity); err != nil {
		return err
	}
	if quantity > s.Stock {
		return ErrInsufficientStock
	}
	s.Stock -= quantity
	if s.Stock == 0 {
		s.IsAvailable = false
	}
	return nil
}

// Restock adds quantity units to stock and makes the sweet available again.
func (s *Sweet) Restock(quantity int) error {
	if err := ValidateQuantity(quantity); err != nil {
		return err
	}
	s.Stock += quantity
	if s.Stock > 0 {
		s.IsAvailable = true
	}
	return nil
}

// Normalize trims text fields and replaces a nil ingredient list with an
// empty one.
func (s *Sweet) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Category = strings.TrimSpace(s.Category)
	s.Description = strings.TrimSpace(s.Description)
	s.ImageURL = strings.TrimSpace(s.ImageURL)
	if s.Ingredients == nil {
		s.Ingredients = []string{}
	}
}

// Validate checks every field against the catalog bounds.
func (s *Sweet) Validate() error {
	if err := validateName(s.Name); err != nil {
		return err
	}
	if err := validateCategory(s.Category); err != nil {
		return err
	}
	if err := validatePrice(s.Price); err != nil {
		return err
	}
	if err := validateStock(s.Stock); err != nil {
		return err
	}
	if err := validateDescription(s.Description); err != nil {
		return err
	}
	return validateRating(s.Rating)
}

// SweetPatch carries a partial catalog update; nil fields are left unchanged.
type SweetPatch struct {
	Name        *string
	Category    *string
	Price       *float64
	Description *string
	Ingredients []string
	Stock       *int
	IsAvailable *bool
	ImageURL    *string
	Rating      *float64
}

// Empty reports whether the patch changes nothing.
func (p *SweetPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil &&
		p.Description == nil && p.Ingredients == nil && p.Stock == nil &&
		p.IsAvailable == nil && p.ImageURL == nil && p.Rating == nil
}

// Normalize trims supplied text fields.
func (p *SweetPatch) Normalize() {
	for _, f := range []*string{p.Name, p.Category, p.Description, p.ImageURL} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

// Validate checks each supplied field against the same bounds as Sweet.Validate.
func (p *SweetPatch) Validate() error {
	if p.Empty() {
		return NewValidationError("", "No fields to update")
	}
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if err := validateCategory(*p.Category); err != nil {
			return err
		}
	}
	if p.Price != nil {
		if err := validatePrice(*p.Price); err != nil {
			return err
		}
	}
	if p.Stock != nil {
		if err := validateStock(*p.Stock); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Rating != nil {
		return validateRating(*p.Rating)
	}
	return nil
}

// DeriveAvailability sets IsAvailable from a supplied stock count unless the
// caller set availability explicitly.
func (p *SweetPatch) DeriveAvailability() {
	if p.Stock == nil || p.IsAvailable != nil {
		return
	}
	available := *p.Stock > 0
	p.IsAvailable = &available
}

// Apply copies the supplied fields onto s.
func (p *SweetPatch) Apply(s *Sweet) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Ingredients != nil {
		s.Ingredients = append([]string(nil), p.Ingredients...)
	}
	if p.Stock != nil {
		s.Stock = *p.Stock
	}
	if p.IsAvailable != nil {
		s.IsAvailable = *p.IsAvailable
	}
	if p.ImageURL != nil {
		s.ImageURL = *p.ImageURL
	}
	if p.Rating != nil {
		s.Rating = *p.Rating
	}
}

// SweetFilter narrows a catalog search. Zero values disable a criterion.
type SweetFilter struct {
	Name     string // case-insensitive substring
	Category string // exact match
	PriceMin *float64
	PriceMax *float64
}

// Matches reports whether s satisfies every criterion in f.
func (f SweetFilter) Matches(s *Sweet) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Category != "" && s.Category != f.Category {
		return false
	}
	if f.PriceMin != nil && s.Price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && s.Price > *f.PriceMax {
		return false
	}
	return true
}

func validateName(name string) error {
	return validateLength("name", name, NameMinLen, NameMaxLen)
}

func validateCategory(category string) error {
	return validateLength("category", category, CategoryMinLen, CategoryMaxLen)
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > DescriptionMaxLen {
		return NewValidationError("description", fmt.Sprintf("description must be at most %d characters", DescriptionMaxLen))
	}
	return nil
}

func validateLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		return NewValidationError(field, fmt.Sprintf("%s must be between %d and %d characters", field, min, max))
	}
	return nil
}

func validatePrice(price float64) error {
	if price < 0 {
		return NewValidationError("price", "Invalid price")
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return NewValidationError("stock", "Invalid stock")
	}
	return nil
}

func validateRating(rating float64) error {
	if rating < 0 || rating > RatingMax {
		return NewValidationError("rating", fmt.Sprintf("rating must be between 0 and %d", RatingMax))
	}
	return nil
}
