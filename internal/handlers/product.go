package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/adyen/productprobe/internal/logging"
	"github.com/adyen/productprobe/internal/models"
	"github.com/adyen/productprobe/internal/services"
)

// Form field names posted by the create form
const (
	FormProductID   = "productId"
	FormDescription = "description"
	FormPrice       = "price"
	FormImageURL    = "image_url"
)

// ProductFormData represents the data passed to the create form template
type ProductFormData struct {
	Values models.ProductInput
	Errors []string
}

// ProductFormHandler serves and processes the create product form
type ProductFormHandler struct {
	template    *template.Template
	service     services.ProductService
	redirectURL string
	logger      *zap.Logger
}

// NewProductFormHandler creates a new ProductFormHandler that redirects to redirectURL after
// a product is created
func NewProductFormHandler(templatePath string, service services.ProductService, redirectURL string, logger *zap.Logger) (*ProductFormHandler, error) {
	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return nil, err
	}

	return &ProductFormHandler{
		template:    tmpl,
		service:     service,
		redirectURL: redirectURL,
		logger:      logging.OrNop(logger),
	}, nil
}

// ServeHTTP renders the form on GET and creates the product on POST
func (h *ProductFormHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.render(w, http.StatusOK, ProductFormData{})
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ProductFormHandler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	input := models.ProductInput{
		ProductID:   r.PostForm.Get(FormProductID),
		Description: r.PostForm.Get(FormDescription),
		Price:       r.PostForm.Get(FormPrice),
		ImageURL:    r.PostForm.Get(FormImageURL),
	}

	product, err := h.service.CreateProduct(input)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			h.logger.Info("product rejected", zap.String("product_id", input.ProductID), zap.Errors("violations", verr.Violations))
			h.render(w, http.StatusUnprocessableEntity, ProductFormData{Values: input, Errors: messages(verr.Violations)})
		case errors.Is(err, models.ErrDuplicateProduct):
			h.logger.Info("product rejected", zap.String("product_id", input.ProductID), zap.Error(err))
			h.render(w, http.StatusUnprocessableEntity, ProductFormData{Values: input, Errors: messages([]error{models.ErrDuplicateProduct})})
		default:
			h.logger.Error("product not stored", zap.String("product_id", input.ProductID), zap.Error(err))
			h.render(w, http.StatusInternalServerError, ProductFormData{Values: input, Errors: []string{"Product could not be saved"}})
		}
		return
	}

	h.logger.Info("product created", zap.String("product_id", product.ProductID), zap.Int64("price_cents", product.PriceCents))
	http.Redirect(w, r, h.redirectURL, http.StatusSeeOther)
}

func (h *ProductFormHandler) render(w http.ResponseWriter, status int, data ProductFormData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.template.Execute(w, data); err != nil {
		h.logger.Error("failed to render product form", zap.Error(err))
	}
}

// messages turns domain errors into sentence-case messages for display
func messages(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		msg := err.Error()
		r, size := utf8.DecodeRuneInString(msg)
		out = append(out, string(unicode.ToUpper(r))+msg[size:])
	}
	return out
}
