// Package outcome decides what happened after the create form was submitted by looking only
// at the URL the browser ended up on.
package outcome

import (
	"strings"
	"time"

	"github.com/adyen/productprobe/internal/driver"
	"github.com/adyen/productprobe/internal/wait"
)

// Outcome is the classification of a submission.
type Outcome int

const (
	Unknown Outcome = iota
	Created
	StayedOnForm
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "Created"
	case StayedOnForm:
		return "StayedOnForm"
	default:
		return "Unknown"
	}
}

// Parse is the inverse of String. Unrecognised labels map to Unknown.
func Parse(s string) Outcome {
	switch s {
	case "Created":
		return Created
	case "StayedOnForm":
		return StayedOnForm
	default:
		return Unknown
	}
}

// MarkerFor returns the last path segment of the submission path including its leading
// slash: "/product/new" gives "/new".
func MarkerFor(submissionPath string) string {
	p := strings.TrimRight(submissionPath, "/")
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "/" + p
	}
	return p[i:]
}

// Classify labels a URL against the submission marker. Any URL still containing the marker
// counts as StayedOnForm, so "/product/newton123" is not recognised as a created product.
func Classify(url, marker string) Outcome {
	if url == "" {
		return Unknown
	}
	if strings.Contains(url, marker) {
		return StayedOnForm
	}
	return Created
}

// Waiter polls the current URL until it leaves the submission route.
type Waiter struct {
	Driver   driver.Driver
	Marker   string
	Timeout  time.Duration
	Interval time.Duration
	Clock    wait.Clock
}

// Wait returns the URL once it no longer contains the marker. On timeout the URL is read
// as-is; ok reports whether navigation was observed. The returned URL is empty only when it
// could not be read.
func (w Waiter) Wait() (url string, ok bool) {
	poller := wait.Poller{Timeout: w.Timeout, Interval: w.Interval, Clock: w.Clock}
	err := poller.Run(func() (bool, error) {
		current, err := w.Driver.CurrentURL()
		if err != nil {
			return false, err
		}
		url = current
		return current != "" && !strings.Contains(current, w.Marker), nil
	})
	if err == nil {
		return url, true
	}
	if current, err := w.Driver.CurrentURL(); err == nil {
		url = current
	}
	return url, false
}

// Await waits for navigation and classifies where the browser landed.
func (w Waiter) Await() (Outcome, string) {
	url, _ := w.Wait()
	return Classify(url, w.Marker), url
}
