package postgres

import (
	"storefront-api/internal/catalog"
	productDatamodel "storefront-api/internal/core/datamodel/product"

	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) catalog.RepositoryAPI {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetAll() ([]*productDatamodel.Product, error) {
	var products []*productDatamodel.Product
	err := r.db.Order("title ASC").Find(&products).Error
	return products, err
}

func (r *ProductRepository) GetByID(id string) (*productDatamodel.Product, error) {
	var p productDatamodel.Product
	err := r.db.Where("id = ?", id).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) GetByIDs(ids []string) ([]*productDatamodel.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []*productDatamodel.Product
	err := r.db.Where("id IN ?", ids).Find(&products).Error
	return products, err
}
