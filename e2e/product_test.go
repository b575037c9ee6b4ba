package e2e

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/adyen/productprobe/internal/driver"
	"github.com/adyen/productprobe/internal/locator"
	"github.com/adyen/productprobe/internal/models"
	"github.com/adyen/productprobe/internal/outcome"
	"github.com/adyen/productprobe/internal/scenario"
)

// TestCreateProductForm tests the create product form directly
// Feature: Create product
//
//	As a catalogue manager
//	I want to add a product through the form
//	So that it shows up in the product list
func TestCreateProductForm(t *testing.T) {
	// Scenario: Create a product with valid data
	//   Given I am on the new product page
	//   When I fill in every field and submit
	//   Then I should land on the product list
	//   And I should see my product

	page := newPage(t)
	defer page.Close()

	// Given I am on the new product page
	if _, err := page.Goto(baseURL + "/product/new"); err != nil {
		t.Fatalf("Failed to navigate to form: %v", err)
	}

	// When I fill in every field and submit
	productID := (&scenario.ProductIDGenerator{}).Next() + "-form"
	fills := []struct {
		selector string
		value    string
	}{
		{"#productId", productID},
		{"[name='description']", "desc"},
		{"[name='price']", "12.50"},
		{"#imageUrlInput", "http://valid.url/image.jpg"},
	}
	for _, f := range fills {
		if err := page.Locator(f.selector).Fill(f.value); err != nil {
			t.Fatalf("Failed to fill %s: %v", f.selector, err)
		}
	}
	if err := page.Locator(locator.SubmitSelector).Click(); err != nil {
		t.Fatalf("Failed to submit: %v", err)
	}

	// Then I should land on the product list
	if err := page.WaitForURL("**/products"); err != nil {
		t.Fatalf("Expected to land on /products, at %s: %v", page.URL(), err)
	}

	// And I should see my product
	row, err := page.Locator("tr[data-product-id='" + productID + "']").TextContent()
	if err != nil {
		t.Fatalf("Failed to find product row: %v", err)
	}
	if !strings.Contains(row, "12.50") || !strings.Contains(row, "http://valid.url/image.jpg") {
		t.Errorf("Unexpected product row: %q", row)
	}
}

// TestResilientLocator tests field lookup against the storefront's mixed naming
// Feature: Resilient field lookup
//
//	As a test author
//	I want fields found by id, name or partial id
//	So that scenarios survive inconsistent markup
func TestResilientLocator(t *testing.T) {
	// Scenario: Every logical field resolves to a visible input
	//   Given I am on the new product page
	//   Then each field identifier resolves to an element
	//   And an unknown field times out

	page := newPage(t)
	d := driver.NewPlaywrightDriver(page)
	defer d.Close()

	// Given I am on the new product page
	if err := d.Navigate(baseURL + "/product/new"); err != nil {
		t.Fatalf("Failed to navigate to form: %v", err)
	}

	// Then each field identifier resolves to an element
	loc := locator.New(d, zaptest.NewLogger(t))
	loc.Timeout = probeConfig(t).LookupTimeout
	want := map[string]string{
		scenario.FieldProductID:   "productId",
		scenario.FieldDescription: "",
		scenario.FieldPrice:       "product-price",
		scenario.FieldImageURL:    "imageUrlInput",
	}
	for field, wantID := range want {
		el, err := loc.Field(field)
		if err != nil {
			t.Errorf("Field(%s) error = %v", field, err)
			continue
		}
		if id, _ := el.Attr("id"); id != wantID {
			t.Errorf("Field(%s) resolved id %q, want %q", field, id, wantID)
		}
	}

	// And an unknown field times out
	if _, err := loc.FieldWithin("sku", 500*time.Millisecond); !errors.Is(err, locator.ErrLookupTimeout) {
		t.Errorf("Expected lookup timeout for sku, got %v", err)
	}
}

// TestScenarioCatalogue runs every scenario against the storefront
// Feature: Create product scenarios
//
//	As a release manager
//	I want the create product checks run in a browser
//	So that regressions in validation are caught
func TestScenarioCatalogue(t *testing.T) {
	// Scenario Outline: Run <scenario>
	//   Given a fresh browser session
	//   When the scenario is submitted
	//   Then the verdict and outcome are as expected

	runner := &scenario.Runner{
		Factory: sessionFactory(t),
		Config:  probeConfig(t),
		Logger:  zaptest.NewLogger(t),
	}
	expected := map[string]struct {
		verdict models.Verdict
		outcome outcome.Outcome
	}{
		"CreateProduct_ValidData":                {models.VerdictPass, outcome.Created},
		"CreateProduct_EmptyProductID":           {models.VerdictPass, outcome.StayedOnForm},
		"CreateProduct_NegativePrice":            {models.VerdictPass, outcome.StayedOnForm},
		"CreateProduct_ZeroPrice":                {models.VerdictPass, outcome.StayedOnForm},
		"CreateProduct_MalformedImageURL":        {models.VerdictPass, outcome.StayedOnForm},
		"CreateProduct_MissingFields_ShowsError": {models.VerdictPass, outcome.StayedOnForm},
	}

	results := runner.RunAll(scenario.Catalogue(&scenario.ProductIDGenerator{}))

	for _, res := range results {
		t.Run(res.Scenario, func(t *testing.T) {
			want := expected[res.Scenario]
			if res.Verdict != want.verdict {
				t.Errorf("verdict = %s (%s), want %s", res.Verdict, res.Message, want.verdict)
			}
			if res.Outcome != want.outcome {
				t.Errorf("outcome = %s at %s, want %s", res.Outcome, res.FinalURL, want.outcome)
			}
		})
	}
	if summary := scenario.Summarize(results); summary.Failed() {
		t.Errorf("expected no failures, got %+v", summary)
	}
}
