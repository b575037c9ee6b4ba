package scenario

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adyen/productprobe/internal/config"
	"github.com/adyen/productprobe/internal/driver"
	"github.com/adyen/productprobe/internal/locator"
	"github.com/adyen/productprobe/internal/logging"
	"github.com/adyen/productprobe/internal/models"
	"github.com/adyen/productprobe/internal/outcome"
	"github.com/adyen/productprobe/internal/screenshot"
	"github.com/adyen/productprobe/internal/wait"
)

// Phases of a scenario, in execution order.
const (
	PhaseSession  = "session"
	PhaseNavigate = "navigate"
	PhaseFill     = "fill"
	PhaseSubmit   = "submit"
	PhaseWait     = "wait"
	PhaseClassify = "classify"
	PhaseAssert   = "assert"
)

var (
	// ErrAssertion wraps every failed expectation.
	ErrAssertion = errors.New("assertion failed")
	// ErrNoFactory is returned when the Runner has no way to open a browser session.
	ErrNoFactory = errors.New("no browser session factory configured")
)

// ResultStore persists scenario results.
type ResultStore interface {
	SaveResult(result *models.ScenarioResult) error
}

// Runner executes scenarios, each in its own browser session.
type Runner struct {
	Factory driver.Factory
	// Config defaults to config.DefaultProbeConfig() when nil.
	Config *config.ProbeConfig
	Logger *zap.Logger
	// Store is optional; results are only logged without one.
	Store ResultStore
	// Clock overrides real time for every wait of the run.
	Clock wait.Clock
	RunID string
}

type phaseError struct {
	phase string
	err   error
}

func (e *phaseError) Error() string { return e.err.Error() }
func (e *phaseError) Unwrap() error { return e.err }

func inPhase(phase string, err error) error {
	if err == nil {
		return nil
	}
	return &phaseError{phase: phase, err: err}
}

// Run executes one scenario. The returned error is nil unless the verdict is Fail. The
// session is closed exactly once however the scenario ends.
func (r *Runner) Run(sc Scenario) (models.ScenarioResult, error) {
	logger := logging.OrNop(r.Logger).With(zap.String("scenario", sc.Name))
	start := r.now()
	res := models.ScenarioResult{
		ID:        uuid.New().String(),
		RunID:     r.RunID,
		Scenario:  sc.Name,
		StartedAt: start,
	}

	err := r.runSession(sc, &res, logger)
	res.Duration = r.now().Sub(start)
	if err != nil {
		res.Verdict = models.VerdictFail
		res.Message = err.Error()
		var pe *phaseError
		if errors.As(err, &pe) {
			res.Phase = pe.phase
		}
		logger.Error("scenario failed", zap.String("phase", res.Phase), zap.Error(err))
		return res, err
	}

	logger.Info("scenario finished",
		zap.Stringer("outcome", res.Outcome),
		zap.String("verdict", string(res.Verdict)),
		zap.String("url", res.FinalURL))
	return res, nil
}

func (r *Runner) runSession(sc Scenario, res *models.ScenarioResult, logger *zap.Logger) error {
	if r.Factory == nil {
		return inPhase(PhaseSession, ErrNoFactory)
	}
	d, err := r.Factory()
	if err != nil {
		return inPhase(PhaseSession, fmt.Errorf("failed to open browser session: %w", err))
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Warn("failed to close browser session", zap.Error(err))
		}
	}()

	err = r.execute(d, sc, res, logger)
	if err != nil {
		var pe *phaseError
		if errors.As(err, &pe) {
			capturer := screenshot.Capturer{Dir: r.probeConfig().ScreenshotDir, Logger: logger, Now: r.now}
			res.ScreenshotPath = capturer.Capture(d, sc.Name+"_"+pe.phase)
		}
	}
	return err
}

func (r *Runner) execute(d driver.Driver, sc Scenario, res *models.ScenarioResult, logger *zap.Logger) error {
	cfg := r.probeConfig()
	phase := func(name string) { logger.Debug("phase", zap.String("phase", name)) }

	// Given the create form is open
	phase(PhaseNavigate)
	if err := d.Navigate(cfg.SubmissionURL()); err != nil {
		return inPhase(PhaseNavigate, err)
	}

	// When the scenario values are entered
	phase(PhaseFill)
	loc := locator.New(d, logger)
	loc.Timeout = cfg.LookupTimeout
	loc.Interval = cfg.PollInterval
	loc.Clock = r.Clock
	for _, f := range sc.Fields {
		el, err := loc.Field(f.Name)
		if err != nil {
			return inPhase(PhaseFill, err)
		}
		if f.Value == "" {
			continue
		}
		if err := el.Fill(f.Value); err != nil {
			return inPhase(PhaseFill, fmt.Errorf("failed to fill %s: %w", f.Name, err))
		}
	}

	// And the form is submitted
	phase(PhaseSubmit)
	submit, err := loc.Submit()
	if err != nil {
		return inPhase(PhaseSubmit, err)
	}
	if err := submit.Click(); err != nil {
		return inPhase(PhaseSubmit, fmt.Errorf("failed to click submit: %w", err))
	}

	// Then the outcome matches the expectation
	if sc.Expectation == models.ExpectErrorMessage {
		phase(PhaseAssert)
		return r.assertErrorMessage(d, sc, res)
	}

	phase(PhaseWait)
	waiter := outcome.Waiter{
		Driver:   d,
		Marker:   outcome.MarkerFor(cfg.SubmissionPath),
		Timeout:  cfg.NavigationTimeout,
		Interval: cfg.PollInterval,
		Clock:    r.Clock,
	}
	res.Outcome, res.FinalURL = waiter.Await()

	phase(PhaseClassify)
	if res.Outcome != outcome.Created {
		logger.Debug("no navigation away from the form", zap.Stringer("outcome", res.Outcome), zap.String("url", res.FinalURL))
	}

	phase(PhaseAssert)
	res.Verdict = sc.Expectation.Judge(res.Outcome)
	switch res.Verdict {
	case models.VerdictFail:
		return inPhase(PhaseAssert, fmt.Errorf("%w: expected %s, got %s at %q",
			ErrAssertion, outcome.Created, res.Outcome, res.FinalURL))
	case models.VerdictWarning:
		res.Message = fmt.Sprintf("submission was not rejected (%s)", res.Outcome)
		logger.Warn("invalid input was accepted", zap.Stringer("outcome", res.Outcome), zap.String("url", res.FinalURL))
	}
	return nil
}

func (r *Runner) assertErrorMessage(d driver.Driver, sc Scenario, res *models.ScenarioResult) error {
	needle := strings.ToLower(sc.ErrorNeedle)
	var seen []string
	cfg := r.probeConfig()
	poller := wait.Poller{Timeout: cfg.LookupTimeout, Interval: cfg.PollInterval, Clock: r.Clock}
	err := poller.Run(func() (bool, error) {
		elements, err := d.Find(driver.ByCSS, ErrorSelector)
		if err != nil {
			return false, err
		}
		seen = seen[:0]
		for _, el := range elements {
			if visible, err := el.Visible(); err != nil || !visible {
				continue
			}
			text, err := el.Text()
			if err != nil {
				continue
			}
			seen = append(seen, strings.TrimSpace(text))
			if strings.Contains(strings.ToLower(text), needle) {
				return true, nil
			}
		}
		return false, nil
	})

	if url, urlErr := d.CurrentURL(); urlErr == nil {
		res.FinalURL = url
		res.Outcome = outcome.Classify(url, outcome.MarkerFor(cfg.SubmissionPath))
	}
	if err != nil {
		return inPhase(PhaseAssert, fmt.Errorf("%w: no %q element containing %q (seen %q)",
			ErrAssertion, ErrorSelector, sc.ErrorNeedle, seen))
	}
	res.Verdict = models.VerdictPass
	res.Message = strings.Join(seen, "; ")
	return nil
}

// RunAll executes the scenarios sequentially and returns every result. Results are saved to
// the Store when one is configured; store failures are logged and never fail the run.
func (r *Runner) RunAll(scenarios []Scenario) []models.ScenarioResult {
	logger := logging.OrNop(r.Logger)
	if r.RunID == "" {
		r.RunID = uuid.New().String()
	}
	logger.Info("starting run", zap.String("run_id", r.RunID), zap.Int("scenarios", len(scenarios)))

	results := make([]models.ScenarioResult, 0, len(scenarios))
	for _, sc := range scenarios {
		res, _ := r.Run(sc)
		if r.Store != nil {
			if err := r.Store.SaveResult(&res); err != nil {
				logger.Warn("failed to save scenario result", zap.String("scenario", sc.Name), zap.Error(err))
			}
		}
		results = append(results, res)
	}

	summary := Summarize(results)
	logger.Info("run finished",
		zap.String("run_id", r.RunID),
		zap.Int("passed", summary.Passed),
		zap.Int("warnings", summary.Warnings),
		zap.Int("failed", summary.Failures))
	return results
}

func (r *Runner) probeConfig() *config.ProbeConfig {
	if r.Config != nil {
		return r.Config
	}
	cfg := config.DefaultProbeConfig()
	return &cfg
}

func (r *Runner) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now()
	}
	return time.Now()
}

// Summary counts the verdicts of a run.
type Summary struct {
	Total    int
	Passed   int
	Warnings int
	Failures int
}

// Summarize counts verdicts.
func Summarize(results []models.ScenarioResult) Summary {
	s := Summary{Total: len(results)}
	for _, res := range results {
		switch res.Verdict {
		case models.VerdictPass:
			s.Passed++
		case models.VerdictWarning:
			s.Warnings++
		case models.VerdictFail:
			s.Failures++
		}
	}
	return s
}

// Failed reports whether any scenario failed.
func (s Summary) Failed() bool {
	return s.Failures > 0
}
