package driver

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodOptions configures the Rod backend.
type RodOptions struct {
	Headless          bool
	NavigationTimeout time.Duration
}

// browserProcess is the part of *launcher.Launcher that owns the Chrome process.
type browserProcess interface {
	Kill()
	Cleanup()
}

func stopProcess(p browserProcess) {
	if p == nil {
		return
	}
	p.Kill()
	p.Cleanup()
}

// connectOrStop runs connect and stops the launched process when it fails.
func connectOrStop(p browserProcess, connect func() error) error {
	if err := connect(); err != nil {
		stopProcess(p)
		return fmt.Errorf("failed to connect to Chrome: %w", err)
	}
	return nil
}

// RodRuntime owns a Chrome process controlled over CDP by Rod.
type RodRuntime struct {
	browser *rod.Browser
	process browserProcess
	opts    RodOptions
}

// StartRod launches Chrome and connects Rod to it.
func StartRod(opts RodOptions) (*RodRuntime, error) {
	l := launcher.New().
		Headless(opts.Headless).
		Set("no-sandbox").
		Set("disable-gpu")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch Chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := connectOrStop(l, browser.Connect); err != nil {
		return nil, err
	}

	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	return &RodRuntime{browser: browser, process: l, opts: opts}, nil
}

// NewSession opens an incognito context with a blank page.
func (r *RodRuntime) NewSession() (Driver, error) {
	incognito, err := r.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create incognito context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		incognito.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &RodDriver{browser: incognito, page: page, navTimeout: r.opts.NavigationTimeout}, nil
}

// Factory returns a Factory bound to this runtime.
func (r *RodRuntime) Factory() Factory {
	return r.NewSession
}

// Close disconnects from Chrome, then kills the process and removes its profile directory.
func (r *RodRuntime) Close() error {
	var err error
	if r.browser != nil {
		if closeErr := r.browser.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close browser: %w", closeErr)
		}
	}
	stopProcess(r.process)
	return err
}

// RodDriver is a Driver backed by one Rod page.
type RodDriver struct {
	browser    *rod.Browser
	page       *rod.Page
	navTimeout time.Duration
}

func (d *RodDriver) Navigate(url string) error {
	page := d.page.Timeout(d.navTimeout)
	defer page.CancelTimeout()
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed waiting for %s to load: %w", url, err)
	}
	return nil
}

func (d *RodDriver) CurrentURL() (string, error) {
	info, err := d.page.Info()
	if err != nil {
		return "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.URL, nil
}

func (d *RodDriver) Title() (string, error) {
	info, err := d.page.Info()
	if err != nil {
		return "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.Title, nil
}

func (d *RodDriver) Find(by By, value string) ([]Element, error) {
	found, err := d.page.Elements(Selector(by, value))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s=%q: %w", by, value, err)
	}
	elements := make([]Element, 0, len(found))
	for _, el := range found {
		elements = append(elements, rodElement{el})
	}
	return elements, nil
}

func (d *RodDriver) Screenshot() ([]byte, error) {
	return d.page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (d *RodDriver) Close() error {
	if err := d.page.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	if err := d.browser.Close(); err != nil {
		return fmt.Errorf("failed to close incognito context: %w", err)
	}
	return nil
}

type rodElement struct {
	el *rod.Element
}

func (e rodElement) Attr(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

func (e rodElement) Visible() (bool, error) {
	return e.el.Visible()
}

func (e rodElement) Fill(value string) error {
	if err := e.el.SelectAllText(); err != nil {
		return fmt.Errorf("failed to select existing text: %w", err)
	}
	if value == "" {
		// Input("") would leave the selection untouched
		_, err := e.el.Eval(`() => { this.value = '' }`)
		return err
	}
	return e.el.Input(value)
}

func (e rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e rodElement) Text() (string, error) {
	return e.el.Text()
}
