package models

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ProductInput is the raw form submission for a new product
type ProductInput struct {
	ProductID   string
	Description string
	Price       string
	ImageURL    string
}

// Product represents a product stored by the sandbox storefront
type Product struct {
	ProductID   string
	Description string
	PriceCents  int64
	ImageURL    string
	CreatedAt   time.Time
}

// Domain errors
var (
	ErrProductIDRequired   = errors.New("product ID is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrPriceRequired       = errors.New("price is required")
	ErrInvalidPrice        = errors.New("price must be a positive amount with at most two decimals")
	ErrInvalidImageURL     = errors.New("image URL must be an absolute http(s) URL")
	ErrDuplicateProduct    = errors.New("product ID already exists")
)

// NewProduct creates a new product with validation. All violations are joined into the error.
func NewProduct(in ProductInput) (*Product, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cents, _ := ParsePrice(in.Price)
	return &Product{
		ProductID:   strings.TrimSpace(in.ProductID),
		Description: strings.TrimSpace(in.Description),
		PriceCents:  cents,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		CreatedAt:   time.Now(),
	}, nil
}

// Validate returns every rule the input violates, in form field order
func (in ProductInput) Validate() []error {
	var errs []error
	if strings.TrimSpace(in.ProductID) == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if strings.TrimSpace(in.Description) == "" {
		errs = append(errs, ErrDescriptionRequired)
	}
	if strings.TrimSpace(in.Price) == "" {
		errs = append(errs, ErrPriceRequired)
	} else if cents, err := ParsePrice(in.Price); err != nil || cents <= 0 {
		errs = append(errs, ErrInvalidPrice)
	}
	if img := strings.TrimSpace(in.ImageURL); img != "" && !isAbsoluteHTTPURL(img) {
		errs = append(errs, ErrInvalidImageURL)
	}
	return errs
}

// maxPriceUnits is the largest whole amount whose cents still fit in an int64
const maxPriceUnits = (math.MaxInt64 - 99) / 100

// ParsePrice converts a decimal string such as "12.50" into cents. Negative amounts parse
// successfully; positivity is a validation rule, not a parse rule.
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	negative := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")
	if whole == "" || strings.ContainsAny(whole[:1], "+-") || strings.HasPrefix(frac, "-") || strings.HasPrefix(frac, "+") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > maxPriceUnits {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}

	total := units*100 + cents
	if negative {
		total = -total
	}
	return total, nil
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// GetFormattedPrice returns the price in major units
func (p *Product) GetFormattedPrice() string {
	return fmt.Sprintf("%d.%02d", p.PriceCents/100, p.PriceCents%100)
}
