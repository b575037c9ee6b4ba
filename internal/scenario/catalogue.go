// Package scenario defines the create-product scenarios and runs each one in its own
// browser session.
package scenario

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/adyen/productprobe/internal/models"
)

// Logical field identifiers of the create form, in fill order.
const (
	FieldProductID   = "productId"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldImageURL    = "imageUrl"
)

// ErrorSelector matches the validation message container.
const ErrorSelector = ".error, .alert"

// Field is one value to type into the form. An empty Value is located but left empty.
type Field struct {
	Name  string
	Value string
}

// Scenario is one submission of the create form and what is expected of it.
type Scenario struct {
	Name        string
	Fields      []Field
	Expectation models.Expectation
	// ErrorNeedle is matched case-insensitively against ErrorSelector text for
	// ExpectErrorMessage scenarios.
	ErrorNeedle string
}

// ProductIDGenerator issues "PROD-<yyyymmddHHMMSS>" identifiers, suffixing -2, -3, ... when
// the same second is issued more than once.
type ProductIDGenerator struct {
	Now func() time.Time

	mu     sync.Mutex
	issued map[string]int
}

// Next returns an identifier unique within this generator.
func (g *ProductIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	if g.issued == nil {
		g.issued = make(map[string]int)
	}

	id := "PROD-" + now().Format("20060102150405")
	g.issued[id]++
	if n := g.issued[id]; n > 1 {
		return id + "-" + strconv.Itoa(n)
	}
	return id
}

func fields(productID, description, price, imageURL string) []Field {
	return []Field{
		{FieldProductID, productID},
		{FieldDescription, description},
		{FieldPrice, price},
		{FieldImageURL, imageURL},
	}
}

// Catalogue returns the create-product scenarios with fresh product IDs.
func Catalogue(ids *ProductIDGenerator) []Scenario {
	const (
		desc  = "desc"
		price = "12.50"
		image = "http://valid.url/image.jpg"
	)
	return []Scenario{
		{
			Name:        "CreateProduct_ValidData",
			Fields:      fields(ids.Next(), desc, price, image),
			Expectation: models.ExpectCreated,
		},
		{
			Name:        "CreateProduct_EmptyProductID",
			Fields:      fields("", desc, price, image),
			Expectation: models.Probe,
		},
		{
			Name:        "CreateProduct_NegativePrice",
			Fields:      fields(ids.Next(), desc, "-10.50", image),
			Expectation: models.WarnIfCreated,
		},
		{
			Name:        "CreateProduct_ZeroPrice",
			Fields:      fields(ids.Next(), desc, "0", image),
			Expectation: models.Probe,
		},
		{
			Name:        "CreateProduct_MalformedImageURL",
			Fields:      fields(ids.Next(), desc, price, "not a url"),
			Expectation: models.Probe,
		},
		{
			Name: "CreateProduct_MissingFields_ShowsError",
			Fields: []Field{
				{FieldProductID, ""},
				{FieldPrice, "10"},
			},
			Expectation: models.ExpectErrorMessage,
			ErrorNeedle: "required",
		},
	}
}

// Select returns the named scenarios in catalogue order. No names selects all of them.
func Select(catalogue []Scenario, names ...string) ([]Scenario, error) {
	if len(names) == 0 {
		return catalogue, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []Scenario
	for _, sc := range catalogue {
		if wanted[sc.Name] {
			out = append(out, sc)
			delete(wanted, sc.Name)
		}
	}
	for n := range wanted {
		return nil, fmt.Errorf("unknown scenario %q", n)
	}
	return out, nil
}
