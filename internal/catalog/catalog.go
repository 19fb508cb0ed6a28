package catalog

import (
	productDatamodel "storefront-api/internal/core/datamodel/product"
)

type RepositoryAPI interface {
	GetAll() ([]*productDatamodel.Product, error)
	GetByID(id string) (*productDatamodel.Product, error)
	GetByIDs(ids []string) ([]*productDatamodel.Product, error)
}

type ProductResponse struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

func ToResponse(p *productDatamodel.Product) ProductResponse {
	return ProductResponse{
		ID:    p.ID,
		Title: p.Title,
		Price: p.Price,
		Image: p.Image,
	}
}
