package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adyen/productprobe/internal/config"
	"github.com/adyen/productprobe/internal/driver/drivertest"
	"github.com/adyen/productprobe/internal/locator"
	"github.com/adyen/productprobe/internal/models"
	"github.com/adyen/productprobe/internal/outcome"
)

const base = "http://shop.test"

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time        { return c.now }
func (c *stepClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

// storefront scripts the create form with mixed id/name naming. accept decides whether a
// submission redirects to the product list or re-renders the form with an error box.
type storefront struct {
	d      *drivertest.Driver
	inputs map[string]*drivertest.Element
	errBox *drivertest.Element
}

func newStorefront(accept func(in models.ProductInput) []error) *storefront {
	s := &storefront{
		inputs: map[string]*drivertest.Element{
			FieldProductID:   drivertest.Input("productId", "productId", "text"),
			FieldDescription: drivertest.Input("", "description", "text"),
			FieldPrice:       drivertest.Input("product-price", "price", "text"),
			FieldImageURL:    drivertest.Input("imageUrlInput", "", "url"),
		},
		errBox: &drivertest.Element{Tag: "div", Classes: []string{"error"}, Hidden: true},
	}
	submit := drivertest.SubmitButton(func(d *drivertest.Driver) error {
		in := models.ProductInput{
			ProductID:   s.inputs[FieldProductID].Value,
			Description: s.inputs[FieldDescription].Value,
			Price:       s.inputs[FieldPrice].Value,
			ImageURL:    s.inputs[FieldImageURL].Value,
		}
		errs := accept(in)
		if len(errs) == 0 {
			d.Goto(base + "/products")
			return nil
		}
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		s.errBox.TextContent = strings.Join(msgs, "\n")
		s.errBox.Hidden = false
		return nil
	})

	s.d = drivertest.New(map[string]*drivertest.Page{
		base + "/product/new": {
			Title: "New product",
			Elements: []*drivertest.Element{
				drivertest.Form(),
				s.inputs[FieldProductID],
				s.inputs[FieldDescription],
				s.inputs[FieldPrice],
				s.inputs[FieldImageURL],
				s.errBox,
				submit,
			},
		},
		base + "/products": {Title: "Products"},
	})
	return s
}

func acceptAll(models.ProductInput) []error { return nil }

func rejectAll(models.ProductInput) []error { return []error{errors.New("Rejected")} }

func validate(in models.ProductInput) []error { return in.Validate() }

func newRunner(t *testing.T, drivers ...*drivertest.Driver) *Runner {
	t.Helper()
	cfg := config.DefaultProbeConfig()
	cfg.BaseURL = base
	cfg.ScreenshotDir = filepath.Join(t.TempDir(), "Screenshots")
	return &Runner{
		Factory: drivertest.Factory(drivers...),
		Config:  &cfg,
		Logger:  zaptest.NewLogger(t),
		Clock:   &stepClock{now: time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)},
		RunID:   "run-1",
	}
}

func scenarioNamed(t *testing.T, name string) Scenario {
	t.Helper()
	ids := &ProductIDGenerator{Now: func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }}
	selected, err := Select(Catalogue(ids), name)
	require.NoError(t, err)
	return selected[0]
}

func TestRun_ValidDataCreated(t *testing.T) {
	s := newStorefront(acceptAll)
	r := newRunner(t, s.d)

	res, err := r.Run(scenarioNamed(t, "CreateProduct_ValidData"))

	require.NoError(t, err)
	assert.Equal(t, models.VerdictPass, res.Verdict)
	assert.Equal(t, outcome.Created, res.Outcome)
	assert.Equal(t, base+"/products", res.FinalURL)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, []string{"PROD-20240309140507"}, s.inputs[FieldProductID].Fills)
	assert.Equal(t, []string{"12.50"}, s.inputs[FieldPrice].Fills)
	assert.Equal(t, []string{"http://valid.url/image.jpg"}, s.inputs[FieldImageURL].Fills)
	assert.Equal(t, 1, s.d.Closed)
	assert.Zero(t, s.d.Shots)
}

func TestRun_ValidDataRejectedFails(t *testing.T) {
	s := newStorefront(rejectAll)
	r := newRunner(t, s.d)

	res, err := r.Run(scenarioNamed(t, "CreateProduct_ValidData"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAssertion)
	assert.Equal(t, models.VerdictFail, res.Verdict)
	assert.Equal(t, outcome.StayedOnForm, res.Outcome)
	assert.Equal(t, PhaseAssert, res.Phase)
	assert.Equal(t, 1, s.d.Closed)

	require.NotEmpty(t, res.ScreenshotPath)
	assert.True(t, strings.HasPrefix(filepath.Base(res.ScreenshotPath), "CreateProduct_ValidData_assert_"))
	_, statErr := os.Stat(res.ScreenshotPath)
	assert.NoError(t, statErr)
	// navigation wait is bounded by the configured timeout
	assert.Equal(t, r.Config.NavigationTimeout, res.Duration)
}

func TestRun_EmptyProductIDIsReportedOnly(t *testing.T) {
	for _, tt := range []struct {
		name   string
		accept func(models.ProductInput) []error
		want   outcome.Outcome
	}{
		{"accepted", acceptAll, outcome.Created},
		{"rejected", validate, outcome.StayedOnForm},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s := newStorefront(tt.accept)
			res, err := newRunner(t, s.d).Run(scenarioNamed(t, "CreateProduct_EmptyProductID"))

			require.NoError(t, err)
			assert.Equal(t, models.VerdictPass, res.Verdict)
			assert.Equal(t, tt.want, res.Outcome)
			assert.Empty(t, s.inputs[FieldProductID].Fills, "empty values are located but not typed")
		})
	}
}

func TestRun_NegativePrice(t *testing.T) {
	tests := []struct {
		name        string
		accept      func(models.ProductInput) []error
		wantVerdict models.Verdict
	}{
		{"accepted is a warning", acceptAll, models.VerdictWarning},
		{"rejected passes", validate, models.VerdictPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStorefront(tt.accept)
			res, err := newRunner(t, s.d).Run(scenarioNamed(t, "CreateProduct_NegativePrice"))

			require.NoError(t, err)
			assert.Equal(t, tt.wantVerdict, res.Verdict)
			assert.Equal(t, 1, s.d.Closed)
		})
	}
}

func TestRun_MissingFieldsShowsError(t *testing.T) {
	s := newStorefront(validate)
	res, err := newRunner(t, s.d).Run(scenarioNamed(t, "CreateProduct_MissingFields_ShowsError"))

	require.NoError(t, err)
	assert.Equal(t, models.VerdictPass, res.Verdict)
	assert.Contains(t, res.Message, "required")
	assert.Equal(t, outcome.StayedOnForm, res.Outcome)
	assert.Equal(t, []string{"10"}, s.inputs[FieldPrice].Fills)
	assert.Empty(t, s.inputs[FieldDescription].Fills)
}

func TestRun_MissingFieldsWithoutRequiredMessage(t *testing.T) {
	s := newStorefront(func(models.ProductInput) []error { return []error{errors.New("Something went wrong")} })
	res, err := newRunner(t, s.d).Run(scenarioNamed(t, "CreateProduct_MissingFields_ShowsError"))

	assert.ErrorIs(t, err, ErrAssertion)
	assert.Equal(t, models.VerdictFail, res.Verdict)
	assert.Equal(t, PhaseAssert, res.Phase)
	assert.Contains(t, res.Message, "Something went wrong")
	assert.Equal(t, 1, s.d.Shots)
	assert.Equal(t, 1, s.d.Closed)
}

func TestRun_LookupTimeoutFailsFillPhase(t *testing.T) {
	s := newStorefront(acceptAll)
	s.inputs[FieldImageURL].Attrs = map[string]string{"id": "picture"}
	r := newRunner(t, s.d)

	res, err := r.Run(scenarioNamed(t, "CreateProduct_ValidData"))

	assert.ErrorIs(t, err, locator.ErrLookupTimeout)
	assert.Equal(t, models.VerdictFail, res.Verdict)
	assert.Equal(t, PhaseFill, res.Phase)
	assert.Equal(t, outcome.Unknown, res.Outcome)
	assert.Equal(t, 1, s.d.Shots)
	assert.Equal(t, 1, s.d.Closed)
}

func TestRun_NavigationFailure(t *testing.T) {
	s := newStorefront(acceptAll)
	s.d.NavErrors = map[string]error{base + "/product/new": errors.New("net::ERR_CONNECTION_REFUSED")}

	res, err := newRunner(t, s.d).Run(scenarioNamed(t, "CreateProduct_ValidData"))

	require.Error(t, err)
	assert.Equal(t, PhaseNavigate, res.Phase)
	assert.Equal(t, 1, s.d.Closed)
}

func TestRun_SessionFailure(t *testing.T) {
	r := newRunner(t)

	res, err := r.Run(scenarioNamed(t, "CreateProduct_ValidData"))

	assert.ErrorIs(t, err, drivertest.ErrExhausted)
	assert.Equal(t, models.VerdictFail, res.Verdict)
	assert.Equal(t, PhaseSession, res.Phase)
	assert.Empty(t, res.ScreenshotPath)
}

func TestRun_ZeroRunnerUsesDefaultConfig(t *testing.T) {
	s := newStorefront(acceptAll)
	defaults := config.DefaultProbeConfig()
	s.d.Pages[defaults.SubmissionURL()] = s.d.Pages[base+"/product/new"]
	r := &Runner{Factory: drivertest.Factory(s.d)}

	res, err := r.Run(scenarioNamed(t, "CreateProduct_ValidData"))

	require.NoError(t, err)
	assert.Equal(t, models.VerdictPass, res.Verdict)
	assert.Equal(t, []string{defaults.SubmissionURL()}, s.d.Navigated)
	assert.Equal(t, 1, s.d.Closed)
}

func TestRun_NoFactory(t *testing.T) {
	res, err := (&Runner{}).Run(scenarioNamed(t, "CreateProduct_ValidData"))

	assert.ErrorIs(t, err, ErrNoFactory)
	assert.Equal(t, models.VerdictFail, res.Verdict)
	assert.Equal(t, PhaseSession, res.Phase)
}

func TestRun_CloseErrorIsLoggedNotReturned(t *testing.T) {
	s := newStorefront(acceptAll)
	s.d.CloseErr = errors.New("browser already gone")
	core, logs := observer.New(zapcore.WarnLevel)
	r := newRunner(t, s.d)
	r.Logger = zap.New(core)

	res, err := r.Run(scenarioNamed(t, "CreateProduct_ValidData"))

	require.NoError(t, err)
	assert.Equal(t, models.VerdictPass, res.Verdict)
	assert.Equal(t, 1, s.d.Closed)
	assert.Equal(t, 1, logs.FilterMessage("failed to close browser session").Len())
}

func TestRun_ClickFailure(t *testing.T) {
	s := newStorefront(acceptAll)
	for _, el := range s.d.Pages[base+"/product/new"].Elements {
		if el.Tag == "button" {
			el.OnClick = func(*drivertest.Driver) error { return errors.New("element detached") }
		}
	}

	res, err := newRunner(t, s.d).Run(scenarioNamed(t, "CreateProduct_ValidData"))

	require.Error(t, err)
	assert.Equal(t, PhaseSubmit, res.Phase)
}

type recordingStore struct {
	saved  []models.ScenarioResult
	failOn string
}

func (s *recordingStore) SaveResult(res *models.ScenarioResult) error {
	if res.Scenario == s.failOn {
		return errors.New("disk full")
	}
	s.saved = append(s.saved, *res)
	return nil
}

func TestRunAll_Catalogue(t *testing.T) {
	ids := &ProductIDGenerator{Now: func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }}
	catalogue := Catalogue(ids)

	drivers := make([]*drivertest.Driver, len(catalogue))
	for i := range drivers {
		drivers[i] = newStorefront(validate).d
	}
	store := &recordingStore{failOn: "CreateProduct_ZeroPrice"}
	r := newRunner(t, drivers...)
	r.RunID = ""
	r.Store = store

	results := r.RunAll(catalogue)

	require.Len(t, results, len(catalogue))
	for i, res := range results {
		assert.Equal(t, catalogue[i].Name, res.Scenario)
		assert.NotEmpty(t, res.RunID)
		assert.Equal(t, results[0].RunID, res.RunID)
		assert.Equal(t, 1, drivers[i].Closed, res.Scenario)
	}
	assert.Equal(t, outcome.Created, results[0].Outcome)
	assert.Equal(t, outcome.StayedOnForm, results[2].Outcome)
	assert.Len(t, store.saved, len(catalogue)-1)

	summary := Summarize(results)
	assert.Equal(t, Summary{Total: 6, Passed: 6}, summary)
	assert.False(t, summary.Failed())
}

func TestRunAll_FactoryExhaustedKeepsGoing(t *testing.T) {
	ids := &ProductIDGenerator{}
	catalogue := Catalogue(ids)[:3]
	r := newRunner(t, newStorefront(acceptAll).d)

	results := r.RunAll(catalogue)

	require.Len(t, results, 3)
	assert.Equal(t, models.VerdictPass, results[0].Verdict)
	assert.Equal(t, models.VerdictFail, results[1].Verdict)
	assert.Equal(t, models.VerdictFail, results[2].Verdict)
	assert.True(t, Summarize(results).Failed())
}

func TestSummarize(t *testing.T) {
	results := []models.ScenarioResult{
		{Verdict: models.VerdictPass},
		{Verdict: models.VerdictWarning},
		{Verdict: models.VerdictFail},
		{Verdict: models.VerdictPass},
	}
	assert.Equal(t, Summary{Total: 4, Passed: 2, Warnings: 1, Failures: 1}, Summarize(results))
}
