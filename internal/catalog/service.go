package catalog

import (
	"log/slog"

	"storefront-api/internal"
	productDatamodel "storefront-api/internal/core/datamodel/product"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetAllProducts() ([]ProductResponse, error) {
	products, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to get products from repository", "error", err)
		return nil, err
	}

	var responses []ProductResponse
	for _, p := range products {
		if p.IsActive {
			responses = append(responses, ToResponse(p))
		}
	}

	s.logger.Info("retrieved products", "count", len(responses))
	return responses, nil
}

func (s *Service) GetProduct(id string) (*ProductResponse, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get product from repository", "product_id", id, "error", err)
		return nil, err
	}
	if p == nil || !p.IsActive {
		return nil, internal.NewNotFoundError("Product not found", internal.ErrCodeProductNotFound)
	}

	resp := ToResponse(p)
	return &resp, nil
}

// GetProductsByIDs returns the live catalog entries for the given ids, keyed
// by id. Inactive and unknown products are simply absent from the map; the
// caller decides whether that is an error.
func (s *Service) GetProductsByIDs(ids []string) (map[string]*productDatamodel.Product, error) {
	products, err := s.repo.GetByIDs(ids)
	if err != nil {
		s.logger.Error("failed to get products by ids", "count", len(ids), "error", err)
		return nil, err
	}

	byID := make(map[string]*productDatamodel.Product, len(products))
	for _, p := range products {
		if p.IsActive {
			byID[p.ID] = p
		}
	}
	return byID, nil
}
