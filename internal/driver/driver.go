// Package driver defines the browser-automation capability consumed by the probe and
// provides Playwright and Rod backends for it.
package driver

import (
	"errors"
	"fmt"
	"strings"
)

// By selects how Find interprets its value.
type By int

const (
	// ByID matches the element id exactly.
	ByID By = iota
	// ByName matches the name attribute exactly.
	ByName
	// ByIDContains matches elements whose id contains the value.
	ByIDContains
	// ByCSS treats the value as a CSS selector.
	ByCSS
)

func (b By) String() string {
	switch b {
	case ByID:
		return "id"
	case ByName:
		return "name"
	case ByIDContains:
		return "id-contains"
	case ByCSS:
		return "css"
	default:
		return fmt.Sprintf("By(%d)", int(b))
	}
}

// ErrNoPage is returned when an operation needs a page that was never opened.
var ErrNoPage = errors.New("driver: no page open")

// Element is a handle to a DOM element. It becomes invalid once the page navigates.
type Element interface {
	// Attr returns the attribute value, or "" when the attribute is absent.
	Attr(name string) (string, error)
	Visible() (bool, error)
	// Fill replaces the element's value.
	Fill(value string) error
	Click() error
	Text() (string, error)
}

// Driver is one browser session.
type Driver interface {
	Navigate(url string) error
	CurrentURL() (string, error)
	Title() (string, error)
	// Find returns every element matching the query; no match is not an error.
	Find(by By, value string) ([]Element, error)
	Screenshot() ([]byte, error)
	Close() error
}

// Factory opens a new browser session.
type Factory func() (Driver, error)

// Selector converts a query to the CSS selector both backends evaluate.
func Selector(by By, value string) string {
	switch by {
	case ByID:
		return fmt.Sprintf(`[id="%s"]`, escapeAttr(value))
	case ByName:
		return fmt.Sprintf(`[name="%s"]`, escapeAttr(value))
	case ByIDContains:
		return fmt.Sprintf(`[id*="%s"]`, escapeAttr(value))
	default:
		return value
	}
}

func escapeAttr(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}
