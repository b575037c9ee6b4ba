// Package drivertest provides an in-memory driver.Driver for unit tests.
package drivertest

import (
	"errors"
	"slices"
	"strings"

	"github.com/adyen/productprobe/internal/driver"
)

// Element is a scripted DOM element.
type Element struct {
	Tag     string
	Attrs   map[string]string
	Classes []string
	// CSS lists extra selectors this element answers to.
	CSS         []string
	TextContent string

	Hidden bool
	// HiddenFor makes Visible report false for this many calls before Hidden applies.
	HiddenFor  int
	VisibleErr error
	FillErr    error
	OnClick    func(d *Driver) error

	Value  string
	Fills  []string
	Clicks int

	visibleCalls int
	owner        *Driver
}

// Input returns a visible input element. Empty id or name leaves the attribute absent.
func Input(id, name, typ string) *Element {
	attrs := map[string]string{}
	if id != "" {
		attrs["id"] = id
	}
	if name != "" {
		attrs["name"] = name
	}
	if typ != "" {
		attrs["type"] = typ
	}
	return &Element{Tag: "input", Attrs: attrs}
}

// SubmitButton returns a visible submit button that runs onClick when clicked.
func SubmitButton(onClick func(d *Driver) error) *Element {
	return &Element{
		Tag:         "button",
		Attrs:       map[string]string{"type": "submit"},
		CSS:         []string{"form button[type='submit']", "button[type='submit']"},
		TextContent: "Create",
		OnClick:     onClick,
	}
}

// Form returns a form element.
func Form() *Element {
	return &Element{Tag: "form"}
}

func (e *Element) Attr(name string) (string, error) {
	if name == "value" {
		return e.Value, nil
	}
	return e.Attrs[name], nil
}

func (e *Element) Visible() (bool, error) {
	e.visibleCalls++
	if e.VisibleErr != nil {
		return false, e.VisibleErr
	}
	if e.visibleCalls <= e.HiddenFor {
		return false, nil
	}
	return !e.Hidden, nil
}

func (e *Element) Fill(value string) error {
	if e.FillErr != nil {
		return e.FillErr
	}
	e.Fills = append(e.Fills, value)
	e.Value = value
	return nil
}

func (e *Element) Click() error {
	e.Clicks++
	if e.OnClick == nil {
		return nil
	}
	return e.OnClick(e.owner)
}

func (e *Element) Text() (string, error) {
	return e.TextContent, nil
}

func (e *Element) matches(by driver.By, value string) bool {
	switch by {
	case driver.ByID:
		id, ok := e.Attrs["id"]
		return ok && id == value
	case driver.ByName:
		name, ok := e.Attrs["name"]
		return ok && name == value
	case driver.ByIDContains:
		id, ok := e.Attrs["id"]
		return ok && strings.Contains(id, value)
	case driver.ByCSS:
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == e.Tag || slices.Contains(e.CSS, part) {
				return true
			}
			if strings.HasPrefix(part, ".") && slices.Contains(e.Classes, part[1:]) {
				return true
			}
		}
	}
	return false
}

// Page is a scripted document.
type Page struct {
	Title    string
	Elements []*Element
}

// Query records one Find call.
type Query struct {
	By    driver.By
	Value string
}

// Driver is a scripted browser session.
type Driver struct {
	Pages         map[string]*Page
	NavErrors     map[string]error
	FindErrors    map[driver.By]error
	URLErr        error
	ScreenshotErr error
	CloseErr      error
	// URLQueue overrides CurrentURL: each call pops one entry, the last one sticks.
	URLQueue []string

	Navigated []string
	Queries   []Query
	Closed    int
	Shots     int

	current string
}

// New returns a driver serving the given pages keyed by absolute URL.
func New(pages map[string]*Page) *Driver {
	if pages == nil {
		pages = map[string]*Page{}
	}
	return &Driver{Pages: pages}
}

func (d *Driver) page() *Page {
	p := d.Pages[d.current]
	for _, el := range pageElements(p) {
		el.owner = d
	}
	return p
}

func pageElements(p *Page) []*Element {
	if p == nil {
		return nil
	}
	return p.Elements
}

// Goto moves the session to url without recording a navigation; used by OnClick handlers.
func (d *Driver) Goto(url string) {
	d.current = url
}

func (d *Driver) Navigate(url string) error {
	d.Navigated = append(d.Navigated, url)
	if err := d.NavErrors[url]; err != nil {
		return err
	}
	d.current = url
	return nil
}

func (d *Driver) CurrentURL() (string, error) {
	if d.URLErr != nil {
		return "", d.URLErr
	}
	if len(d.URLQueue) > 0 {
		u := d.URLQueue[0]
		if len(d.URLQueue) > 1 {
			d.URLQueue = d.URLQueue[1:]
		}
		return u, nil
	}
	return d.current, nil
}

func (d *Driver) Title() (string, error) {
	if p := d.page(); p != nil {
		return p.Title, nil
	}
	return "", nil
}

func (d *Driver) Find(by driver.By, value string) ([]driver.Element, error) {
	d.Queries = append(d.Queries, Query{By: by, Value: value})
	if err := d.FindErrors[by]; err != nil {
		return nil, err
	}
	var out []driver.Element
	for _, el := range pageElements(d.page()) {
		if el.matches(by, value) {
			out = append(out, el)
		}
	}
	return out, nil
}

func (d *Driver) Screenshot() ([]byte, error) {
	d.Shots++
	if d.ScreenshotErr != nil {
		return nil, d.ScreenshotErr
	}
	// PNG signature is enough for callers that only persist bytes
	return []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, nil
}

func (d *Driver) Close() error {
	d.Closed++
	return d.CloseErr
}

// ErrExhausted is returned by a Factory that has handed out all of its drivers.
var ErrExhausted = errors.New("drivertest: no more drivers")

// Factory hands out the given drivers in order.
func Factory(drivers ...*Driver) driver.Factory {
	next := 0
	return func() (driver.Driver, error) {
		if next >= len(drivers) {
			return nil, ErrExhausted
		}
		d := drivers[next]
		next++
		return d, nil
	}
}
