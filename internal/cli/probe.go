package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/adyen/productprobe/internal/config"
	"github.com/adyen/productprobe/internal/database"
	"github.com/adyen/productprobe/internal/discovery"
	"github.com/adyen/productprobe/internal/driver"
	"github.com/adyen/productprobe/internal/logging"
	"github.com/adyen/productprobe/internal/models"
	"github.com/adyen/productprobe/internal/repository"
	"github.com/adyen/productprobe/internal/scenario"
)

// ErrScenariosFailed is returned by a run in which at least one scenario failed.
var ErrScenariosFailed = errors.New("one or more scenarios failed")

// OpenBrowser starts the configured browser backend. The returned close function stops it.
func OpenBrowser(cfg *config.ProbeConfig) (driver.Factory, func() error, error) {
	switch cfg.Driver {
	case config.DriverRod:
		rt, err := driver.StartRod(driver.RodOptions{
			Headless:          cfg.Headless,
			NavigationTimeout: cfg.NavigationTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return rt.Factory(), rt.Close, nil
	default:
		rt, err := driver.StartPlaywright(driver.PlaywrightOptions{
			Headless:            cfg.Headless,
			NavigationTimeoutMS: float64(cfg.NavigationTimeout.Milliseconds()),
		})
		if err != nil {
			return nil, nil, err
		}
		return rt.Factory(), rt.Close, nil
	}
}

// OpenResultStore opens and migrates the configured results store. It returns a nil store
// and a no-op close function when persistence is disabled.
func OpenResultStore(cfg *config.ResultsConfig) (scenario.ResultStore, func() error, error) {
	if !cfg.Enabled() {
		return nil, func() error { return nil }, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to results store: %w", err)
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	driverName, _ := database.DriverName(cfg.Driver)
	return repository.NewResultRepository(db, driverName), db.Close, nil
}

// RunDiscover probes the candidate routes in one browser session and prints the report.
// It only fails when no session can be opened.
func RunDiscover(cfg *config.ProbeConfig, factory driver.Factory, logger *zap.Logger, out io.Writer) (discovery.Report, error) {
	logger = logging.OrNop(logger)

	d, err := factory()
	if err != nil {
		return discovery.Report{}, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Warn("failed to close browser session", zap.Error(err))
		}
	}()

	prober := discovery.Prober{
		Driver:  d,
		BaseURL: cfg.BaseURL,
		Settle:  cfg.SettleDelay,
		Logger:  logger,
	}
	report := prober.Discover(cfg.CandidatePaths)
	PrintReport(out, report)
	return report, nil
}

// PrintReport writes one line per attempted route
func PrintReport(out io.Writer, report discovery.Report) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROUTE\tREACHABLE\tFORMS\tINPUTS\tERROR")
	for _, r := range report.Routes {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%t\t%d\t%d\t%s\n", r.Path, r.Reachable, r.Forms, len(r.Inputs), errText)
	}
	w.Flush()

	if suggested, ok := report.Suggested(); ok {
		fmt.Fprintf(out, "\nsuggested PROBE_SUBMISSION_PATH=%s\n", suggested.Path)
		for _, in := range suggested.Inputs {
			fmt.Fprintf(out, "  input id=%q name=%q type=%q\n", in.ID, in.Name, in.Type)
		}
	} else {
		fmt.Fprintln(out, "\nno candidate route served a form")
	}
}

// ResultLister reads back the results stored for one run
type ResultLister interface {
	ListByRun(runID string) ([]models.ScenarioResult, error)
}

// RunScenarios executes the scenarios, prints the results and returns ErrScenariosFailed
// when any of them failed
func RunScenarios(runner *scenario.Runner, scenarios []scenario.Scenario, out io.Writer) (scenario.Summary, error) {
	results := runner.RunAll(scenarios)
	PrintResults(out, results)

	summary := scenario.Summarize(results)
	fmt.Fprintf(out, "\n%d scenarios: %d passed, %d warnings, %d failed\n",
		summary.Total, summary.Passed, summary.Warnings, summary.Failures)

	if lister, ok := runner.Store.(ResultLister); ok {
		stored, err := lister.ListByRun(runner.RunID)
		if err != nil {
			fmt.Fprintf(out, "could not read back results of run %s: %v\n", runner.RunID, err)
		} else {
			fmt.Fprintf(out, "%d results stored for run %s\n", len(stored), runner.RunID)
		}
	}
	if summary.Failed() {
		return summary, ErrScenariosFailed
	}
	return summary, nil
}

// PrintResults writes one line per scenario result
func PrintResults(out io.Writer, results []models.ScenarioResult) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tVERDICT\tOUTCOME\tURL\tDETAIL")
	for _, r := range results {
		detail := r.Message
		switch {
		case r.IsFailed() && r.Phase != "":
			detail = r.Phase + ": " + detail
		case r.IsWarning():
			detail = "warning: " + detail
		}
		if r.ScreenshotPath != "" {
			detail += " [" + r.ScreenshotPath + "]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Scenario, r.Verdict, r.Outcome, r.FinalURL, detail)
	}
	w.Flush()
}
