// Package discovery probes candidate creation routes of a running application and reports
// which of them serve a form. It is diagnostic only and never fails a run.
package discovery

import (
	"time"

	"go.uber.org/zap"

	"github.com/adyen/productprobe/internal/driver"
	"github.com/adyen/productprobe/internal/locator"
	"github.com/adyen/productprobe/internal/logging"
)

// RouteReport is what was observed on one candidate path.
type RouteReport struct {
	Path      string
	URL       string
	Reachable bool
	Title     string
	Forms     int
	Inputs    []locator.AvailableInput
	Err       error
}

// HasForm reports whether the route rendered at least one form.
func (r RouteReport) HasForm() bool {
	return r.Reachable && r.Forms > 0
}

// Report lists every attempted route in candidate order.
type Report struct {
	Routes []RouteReport
}

// Found returns the routes that rendered at least one form.
func (r Report) Found() []RouteReport {
	var out []RouteReport
	for _, route := range r.Routes {
		if route.HasForm() {
			out = append(out, route)
		}
	}
	return out
}

// Suggested returns the first route with a form.
func (r Report) Suggested() (RouteReport, bool) {
	found := r.Found()
	if len(found) == 0 {
		return RouteReport{}, false
	}
	return found[0], true
}

// Prober visits candidate paths on one driver session.
type Prober struct {
	Driver  driver.Driver
	BaseURL string
	// Settle is waited after each navigation before the DOM is inspected.
	Settle time.Duration
	Sleep  func(time.Duration)
	Logger *zap.Logger
}

// Discover attempts every candidate in order. Navigation and inspection failures are logged and
// recorded on the route's entry; discovery always continues to the next candidate.
func (p Prober) Discover(candidates []string) Report {
	logger := logging.OrNop(p.Logger)
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	report := Report{Routes: make([]RouteReport, 0, len(candidates))}
	for _, path := range candidates {
		route := RouteReport{Path: path, URL: joinURL(p.BaseURL, path)}
		logger.Info("probing route", zap.String("url", route.URL))

		if err := p.Driver.Navigate(route.URL); err != nil {
			logger.Warn("route not reachable", zap.String("route", path), zap.Error(err))
			route.Err = err
			report.Routes = append(report.Routes, route)
			continue
		}
		route.Reachable = true
		sleep(p.Settle)

		p.inspect(&route, logger)
		report.Routes = append(report.Routes, route)
	}

	if suggested, ok := report.Suggested(); ok {
		logger.Info("suggested submission path", zap.String("route", suggested.Path))
	} else {
		logger.Warn("no candidate route served a form", zap.Int("candidates", len(candidates)))
	}
	return report
}

func (p Prober) inspect(route *RouteReport, logger *zap.Logger) {
	forms, err := p.Driver.Find(driver.ByCSS, "form")
	if err != nil {
		logger.Warn("could not count forms", zap.String("route", route.Path), zap.Error(err))
		route.Err = err
		return
	}
	route.Forms = len(forms)
	if route.Forms == 0 {
		logger.Info("no form on route", zap.String("route", route.Path))
		return
	}

	if title, err := p.Driver.Title(); err == nil {
		route.Title = title
	}
	logger.Info("form found",
		zap.String("route", route.Path), zap.String("title", route.Title), zap.Int("forms", route.Forms))

	inputs, err := locator.AvailableInputs(p.Driver)
	if err != nil {
		logger.Warn("could not enumerate inputs", zap.String("route", route.Path), zap.Error(err))
		route.Err = err
		return
	}
	route.Inputs = inputs
	for _, in := range inputs {
		logger.Info("input",
			zap.String("route", route.Path),
			zap.String("id", in.ID), zap.String("name", in.Name), zap.String("type", in.Type))
	}
}

func joinURL(base, path string) string {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + path
}
