package services

import (
	"fmt"
	"strings"

	"github.com/adyen/productprobe/internal/models"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	CreateProduct(p *models.Product) error
	ListProducts() []*models.Product
}

// ProductService handles product business logic
type ProductService interface {
	CreateProduct(input models.ProductInput) (*models.Product, error)
	ListProducts() []*models.Product
}

// ValidationError lists every rule a product input violates
type ValidationError struct {
	Violations []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return "invalid product: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the violations to errors.Is and errors.As
func (e *ValidationError) Unwrap() []error {
	return e.Violations
}

// ProductServiceImpl implements ProductService
type ProductServiceImpl struct {
	productRepo ProductRepository
}

// NewProductService creates a new product service
func NewProductService(productRepo ProductRepository) ProductService {
	return &ProductServiceImpl{
		productRepo: productRepo,
	}
}

// CreateProduct validates the input and stores the product
func (s *ProductServiceImpl) CreateProduct(input models.ProductInput) (*models.Product, error) {
	if violations := input.Validate(); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	// Create product using domain factory method
	product, err := models.NewProduct(input)
	if err != nil {
		return nil, fmt.Errorf("invalid product: %w", err)
	}

	if err := s.productRepo.CreateProduct(product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// ListProducts returns every stored product
func (s *ProductServiceImpl) ListProducts() []*models.Product {
	return s.productRepo.ListProducts()
}
