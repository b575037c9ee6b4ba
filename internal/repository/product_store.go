package repository

import (
	"sort"
	"sync"

	"github.com/adyen/productprobe/internal/models"
)

// ProductStore keeps storefront products in memory. It is safe for concurrent use.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]*models.Product
}

// NewProductStore creates an empty product store
func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[string]*models.Product)}
}

// CreateProduct stores a product, rejecting a product ID that already exists
func (s *ProductStore) CreateProduct(p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ProductID]; exists {
		return models.ErrDuplicateProduct
	}
	s.products[p.ProductID] = p
	return nil
}

// ListProducts returns all products, newest first
func (s *ProductStore) ListProducts() []*models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
