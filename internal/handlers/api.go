package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/productprobe/internal/logging"
	"github.com/adyen/productprobe/internal/services"
)

// ProductResponse is the JSON representation of a product
type ProductResponse struct {
	ProductID   string    `json:"productId"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ProductAPIHandler lists products as JSON
type ProductAPIHandler struct {
	service services.ProductService
	logger *zap.Logger
}

// NewProductAPIHandler creates a new product API handler
func NewProductAPIHandler(service services.ProductService, logger *zap.Logger) *ProductAPIHandler {
	return &ProductAPIHandler{service: service, logger: logging.OrNop(logger)}
}

// ServeHTTP handles the product listing request
func (h *ProductAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendErrorResponse(w, "Only GET is supported", http.StatusMethodNotAllowed)
		return
	}

	products := h.service.ListProducts()
	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, ProductResponse{
			ProductID:   p.ProductID,
			Description: p.Description,
			Price:       p.GetFormattedPrice(),
			ImageURL:    p.ImageURL,
			CreatedAt:   p.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode products", zap.Error(err))
	}
}

// HealthHandler reports that the storefront is serving
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// sendErrorResponse sends a JSON error response
func sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
