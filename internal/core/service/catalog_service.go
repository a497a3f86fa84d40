package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

type CatalogService struct {
	repo   ports.SweetRepository
	logger zerolog.Logger
}

func NewCatalogService(repo ports.SweetRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

func (s *CatalogService) List(ctx context.Context) ([]*domain.Sweet, error) {
	return s.repo.List(ctx, domain.SweetFilter{})
}

// Search returns the sweets matching every criterion of filter. An empty
// filter behaves like List.
func (s *CatalogService) Search(ctx context.Context, filter domain.SweetFilter) ([]*domain.Sweet, error) {
	return s.repo.List(ctx, filter)
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Sweet, error) {
	return s.repo.FindByID(ctx, id)
}

// Create adds a sweet to the catalog. Only admins may call it.
func (s *CatalogService) Create(ctx context.Context, p domain.Principal, in ports.CreateSweetInput) (*domain.Sweet, error) {
	if err := p.Require(domain.RoleAdmin); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sweet := &domain.Sweet{
		Name:        in.Name,
		Category:    in.Category,
		Price:       in.Price,
		Description: in.Description,
		Ingredients: append([]string(nil), in.Ingredients...),
		Stock:       in.Stock,
		IsAvailable: true,
		ImageURL:    in.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Rating != nil {
		sweet.Rating = *in.Rating
	}
	if in.IsAvailable != nil {
		sweet.IsAvailable = *in.IsAvailable
	}
	sweet.Normalize()
	if err := sweet.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, sweet)
	if err != nil {
		s.logger.Error().Err(err).Str("name", sweet.Name).Msg("failed to create sweet")
		return nil, err
	}

	s.logger.Info().Str("sweet_id", created.ID).Str("name", created.Name).Str("by", p.UserID).Msg("sweet created")
	return created, nil
}

// Update applies the supplied fields of patch. Supplying stock without
// isAvailable recomputes availability from the new stock.
func (s *CatalogService) Update(ctx context.Context, p domain.Principal, id string, patch domain.SweetPatch) (*domain.Sweet, error) {
	if err := p.Require(domain.RoleAdmin); err != nil {
		return nil, err
	}

	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	patch.DeriveAvailability()

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("sweet_id", updated.ID).Str("by", p.UserID).Msg("sweet updated")
	return updated, nil
}

func (s *CatalogService) Delete(ctx context.Context, p domain.Principal, id string) error {
	if err := p.Require(domain.RoleAdmin); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("sweet_id", id).Str("by", p.UserID).Msg("sweet deleted")
	return nil
}
