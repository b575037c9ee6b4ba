package driver

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightOptions configures the Playwright backend.
type PlaywrightOptions struct {
	Headless bool
	// NavigationTimeoutMS bounds page.Goto; zero keeps Playwright's default.
	NavigationTimeoutMS float64
}

// PlaywrightRuntime owns the Playwright driver process and a Chromium instance. Sessions
// opened from it are independent pages.
type PlaywrightRuntime struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    PlaywrightOptions
}

// StartPlaywright launches Playwright and Chromium
// (browsers installed via: go run github.com/playwright-community/playwright-go/cmd/playwright install chromium).
func StartPlaywright(opts PlaywrightOptions) (*PlaywrightRuntime, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	return &PlaywrightRuntime{pw: pw, browser: browser, opts: opts}, nil
}

// NewSession opens a fresh browser context and page.
func (r *PlaywrightRuntime) NewSession() (Driver, error) {
	ctx, err := r.browser.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	page, err := ctx.NewPage()
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	if r.opts.NavigationTimeoutMS > 0 {
		page.SetDefaultNavigationTimeout(r.opts.NavigationTimeoutMS)
	}
	return &PlaywrightDriver{ctx: ctx, page: page}, nil
}

// Factory returns a Factory bound to this runtime.
func (r *PlaywrightRuntime) Factory() Factory {
	return r.NewSession
}

// Close shuts down Chromium and the Playwright driver.
func (r *PlaywrightRuntime) Close() error {
	var firstErr error
	if err := r.browser.Close(); err != nil {
		firstErr = fmt.Errorf("failed to close browser: %w", err)
	}
	if err := r.pw.Stop(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to stop playwright: %w", err)
	}
	return firstErr
}

// PlaywrightDriver is a Driver backed by one Playwright page.
type PlaywrightDriver struct {
	ctx  playwright.BrowserContext
	page playwright.Page
}

// NewPlaywrightDriver wraps an existing page. Closing the driver closes the page only.
func NewPlaywrightDriver(page playwright.Page) *PlaywrightDriver {
	return &PlaywrightDriver{page: page}
}

func (d *PlaywrightDriver) Navigate(url string) error {
	if _, err := d.page.Goto(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (d *PlaywrightDriver) CurrentURL() (string, error) {
	return d.page.URL(), nil
}

func (d *PlaywrightDriver) Title() (string, error) {
	return d.page.Title()
}

func (d *PlaywrightDriver) Find(by By, value string) ([]Element, error) {
	locators, err := d.page.Locator(Selector(by, value)).All()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s=%q: %w", by, value, err)
	}
	elements := make([]Element, 0, len(locators))
	for _, l := range locators {
		elements = append(elements, playwrightElement{l})
	}
	return elements, nil
}

func (d *PlaywrightDriver) Screenshot() ([]byte, error) {
	return d.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
}

func (d *PlaywrightDriver) Close() error {
	if err := d.page.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	if d.ctx != nil {
		if err := d.ctx.Close(); err != nil {
			return fmt.Errorf("failed to close browser context: %w", err)
		}
	}
	return nil
}

type playwrightElement struct {
	loc playwright.Locator
}

func (e playwrightElement) Attr(name string) (string, error) {
	return e.loc.GetAttribute(name)
}

func (e playwrightElement) Visible() (bool, error) {
	return e.loc.IsVisible()
}

func (e playwrightElement) Fill(value string) error {
	return e.loc.Fill(value)
}

func (e playwrightElement) Click() error {
	return e.loc.Click()
}

func (e playwrightElement) Text() (string, error) {
	return e.loc.TextContent()
}
