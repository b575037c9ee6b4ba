// Package locator resolves logical form field names to visible DOM elements when the
// application may expose a field by id, by name, or only by a partial id.
package locator

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/productprobe/internal/driver"
	"github.com/adyen/productprobe/internal/logging"
	"github.com/adyen/productprobe/internal/wait"
)

// Defaults used when the Locator fields are zero.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultInterval = 500 * time.Millisecond
)

// SubmitSelector matches the submit control of the create form.
const SubmitSelector = "form button[type='submit']"

var (
	// ErrLookupTimeout is matched by every *LookupTimeoutError.
	ErrLookupTimeout = errors.New("locator: lookup timed out")
	// ErrEmptyField is returned for an empty field identifier.
	ErrEmptyField = errors.New("locator: field identifier is empty")
)

// LookupTimeoutError reports a field that no strategy resolved to a visible element in time.
type LookupTimeoutError struct {
	Field   string
	Timeout time.Duration
	Tried   []string
}

func (e *LookupTimeoutError) Error() string {
	return fmt.Sprintf("no visible element for %q after %s (strategies: %v)", e.Field, e.Timeout, e.Tried)
}

// Is lets errors.Is(err, ErrLookupTimeout) match.
func (e *LookupTimeoutError) Is(target error) bool {
	return target == ErrLookupTimeout
}

// Strategy is one way of resolving a field identifier to candidate elements.
type Strategy struct {
	Name string
	Find func(d driver.Driver, field string) ([]driver.Element, error)
}

func byQuery(name string, by driver.By) Strategy {
	return Strategy{
		Name: name,
		Find: func(d driver.Driver, field string) ([]driver.Element, error) {
			return d.Find(by, field)
		},
	}
}

// DefaultStrategies is the lookup order: exact id, exact name, then id substring.
// The substring strategy can match an unrelated element whose id merely contains the
// field name ("price" also matches "priceOld").
var DefaultStrategies = []Strategy{
	byQuery("id", driver.ByID),
	byQuery("name", driver.ByName),
	byQuery("id-contains", driver.ByIDContains),
}

// Locator finds visible elements on the page of one driver session.
type Locator struct {
	Driver     driver.Driver
	Strategies []Strategy
	Timeout    time.Duration
	Interval   time.Duration
	Logger     *zap.Logger
	// Clock overrides the wait clock; nil uses real time.
	Clock wait.Clock
}

// New returns a Locator using DefaultStrategies and the default timings.
func New(d driver.Driver, logger *zap.Logger) *Locator {
	return &Locator{
		Driver:     d,
		Strategies: DefaultStrategies,
		Timeout:    DefaultTimeout,
		Interval:   DefaultInterval,
		Logger:     logging.OrNop(logger),
	}
}

// Field returns a visible element for the field using the Locator's timeout.
func (l *Locator) Field(field string) (driver.Element, error) {
	return l.FieldWithin(field, l.Timeout)
}

// FieldWithin returns a visible element for the field, polling every strategy in order once
// per tick until one yields a visible candidate or timeout elapses.
func (l *Locator) FieldWithin(field string, timeout time.Duration) (driver.Element, error) {
	if field == "" {
		return nil, ErrEmptyField
	}
	logger := logging.OrNop(l.Logger)
	strategies := l.strategies()

	var found driver.Element
	err := l.poller(timeout).Run(func() (bool, error) {
		for _, s := range strategies {
			candidates, err := s.Find(l.Driver, field)
			if err != nil {
				logger.Debug("lookup strategy failed",
					zap.String("field", field), zap.String("strategy", s.Name), zap.Error(err))
				continue
			}
			if el := firstVisible(candidates); el != nil {
				logger.Debug("field located",
					zap.String("field", field), zap.String("strategy", s.Name))
				found = el
				return true, nil
			}
		}
		return false, nil
	})
	if err == nil {
		return found, nil
	}

	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name
	}
	logger.Warn("field not found",
		zap.String("field", field), zap.Duration("timeout", timeout), zap.Strings("strategies", names))
	l.logAvailableInputs()
	return nil, &LookupTimeoutError{Field: field, Timeout: timeout, Tried: names}
}

// Submit returns the visible submit control of the form.
func (l *Locator) Submit() (driver.Element, error) {
	var found driver.Element
	err := l.poller(l.timeout()).Run(func() (bool, error) {
		candidates, err := l.Driver.Find(driver.ByCSS, SubmitSelector)
		if err != nil {
			return false, err
		}
		found = firstVisible(candidates)
		return found != nil, nil
	})
	if err != nil {
		logging.OrNop(l.Logger).Warn("submit control not found", zap.String("selector", SubmitSelector))
		return nil, &LookupTimeoutError{Field: SubmitSelector, Timeout: l.timeout(), Tried: []string{"css"}}
	}
	return found, nil
}

// AvailableInput describes an input element present on the page.
type AvailableInput struct {
	ID   string
	Name string
	Type string
}

// AvailableInputs lists every input element currently on the page.
func AvailableInputs(d driver.Driver) ([]AvailableInput, error) {
	inputs, err := d.Find(driver.ByCSS, "input")
	if err != nil {
		return nil, err
	}
	out := make([]AvailableInput, 0, len(inputs))
	for _, in := range inputs {
		id, _ := in.Attr("id")
		name, _ := in.Attr("name")
		typ, _ := in.Attr("type")
		out = append(out, AvailableInput{ID: id, Name: name, Type: typ})
	}
	return out, nil
}

func (l *Locator) logAvailableInputs() {
	logger := logging.OrNop(l.Logger)
	inputs, err := AvailableInputs(l.Driver)
	if err != nil {
		logger.Warn("could not enumerate inputs", zap.Error(err))
		return
	}
	logger.Info("available inputs", zap.Int("count", len(inputs)))
	for _, in := range inputs {
		logger.Info("input", zap.String("id", in.ID), zap.String("name", in.Name))
	}
}

func (l *Locator) strategies() []Strategy {
	if len(l.Strategies) == 0 {
		return DefaultStrategies
	}
	return l.Strategies
}

func (l *Locator) timeout() time.Duration {
	if l.Timeout <= 0 {
		return DefaultTimeout
	}
	return l.Timeout
}

func (l *Locator) poller(timeout time.Duration) wait.Poller {
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return wait.Poller{Timeout: timeout, Interval: interval, Clock: l.Clock}
}

func firstVisible(candidates []driver.Element) driver.Element {
	for _, el := range candidates {
		if visible, err := el.Visible(); err == nil && visible {
			return el
		}
	}
	return nil
}
