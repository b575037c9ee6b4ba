package handlers

import (
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/adyen/productprobe/internal/logging"
	"github.com/adyen/productprobe/internal/models"
	"github.com/adyen/productprobe/internal/services"
)

// ProductListHandler renders the list of created products
type ProductListHandler struct {
	template *template.Template
	service  services.ProductService
	logger   *zap.Logger
}

// ProductListData represents the data for the product list template
type ProductListData struct {
	Products []*models.Product
}

// NewProductListHandler creates a new product list handler
func NewProductListHandler(templatePath string, service services.ProductService, logger *zap.Logger) (*ProductListHandler, error) {
	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &ProductListHandler{
		template: tmpl,
		service:  service,
		logger:   logging.OrNop(logger),
	}, nil
}

// ServeHTTP handles the product list request
func (h *ProductListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := ProductListData{Products: h.service.ListProducts()}
	if err := h.template.Execute(w, data); err != nil {
		h.logger.Error("failed to render product list", zap.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}
