package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Browser driver backends
const (
	DriverPlaywright = "playwright"
	DriverRod        = "rod"
)

// DefaultCandidatePaths are the creation routes probed by route discovery, in order.
var DefaultCandidatePaths = []string{
	"/product/new",
	"/products/new",
	"/product/create",
	"/products/create",
	"/product/add",
	"/products/add",
}

// ProbeConfig holds the settings shared by every scenario of a run.
// It is built once at startup and never mutated afterwards.
type ProbeConfig struct {
	BaseURL           string
	SubmissionPath    string
	CandidatePaths    []string
	LookupTimeout     time.Duration
	PollInterval      time.Duration
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	ScreenshotDir     string
	Driver            string
	Headless          bool
}

// DefaultProbeConfig returns the configuration used when no environment overrides are set
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		BaseURL:           "http://localhost:8083",
		SubmissionPath:    "/product/new",
		CandidatePaths:    append([]string(nil), DefaultCandidatePaths...),
		LookupTimeout:     10 * time.Second,
		PollInterval:      500 * time.Millisecond,
		NavigationTimeout: 10 * time.Second,
		SettleDelay:       2 * time.Second,
		ScreenshotDir:     "Screenshots",
		Driver:            DriverPlaywright,
		Headless:          true,
	}
}

// LoadProbeConfig loads and validates probe configuration from environment variables
func LoadProbeConfig(getenv func(string) string) (*ProbeConfig, error) {
	config, err := ReadProbeConfig(getenv)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ReadProbeConfig parses probe configuration from environment variables without validating
// it, so callers can apply overrides before calling Validate
func ReadProbeConfig(getenv func(string) string) (*ProbeConfig, error) {
	config := DefaultProbeConfig()

	if v := getenv("PROBE_BASE_URL"); v != "" {
		config.BaseURL = v
	}
	if v := getenv("PROBE_SUBMISSION_PATH"); v != "" {
		config.SubmissionPath = v
	}
	if v := getenv("PROBE_CANDIDATE_PATHS"); v != "" {
		config.CandidatePaths = splitList(v)
	}
	if v := getenv("PROBE_SCREENSHOT_DIR"); v != "" {
		config.ScreenshotDir = v
	}
	if v := getenv("PROBE_DRIVER"); v != "" {
		config.Driver = strings.ToLower(v)
	}
	if v := getenv("PROBE_HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("PROBE_HEADLESS must be a boolean: %w", err)
		}
		config.Headless = headless
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"PROBE_LOOKUP_TIMEOUT", &config.LookupTimeout},
		{"PROBE_POLL_INTERVAL", &config.PollInterval},
		{"PROBE_NAVIGATION_TIMEOUT", &config.NavigationTimeout},
		{"PROBE_SETTLE_DELAY", &config.SettleDelay},
	}
	for _, d := range durations {
		v := getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s must be a duration: %w", d.key, err)
		}
		*d.target = parsed
	}

	return &config, nil
}

// Validate checks that the configuration can drive a run
func (c *ProbeConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("PROBE_BASE_URL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("PROBE_BASE_URL must be an http(s) URL, got %q", c.BaseURL)
	}
	if !strings.HasPrefix(c.SubmissionPath, "/") {
		return fmt.Errorf("PROBE_SUBMISSION_PATH must start with '/', got %q", c.SubmissionPath)
	}
	if len(c.CandidatePaths) == 0 {
		return fmt.Errorf("PROBE_CANDIDATE_PATHS cannot be empty")
	}
	if c.LookupTimeout <= 0 || c.NavigationTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("PROBE_POLL_INTERVAL must be positive")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("PROBE_SETTLE_DELAY cannot be negative")
	}
	switch c.Driver {
	case DriverPlaywright, DriverRod:
	default:
		return fmt.Errorf("PROBE_DRIVER must be %q or %q, got %q", DriverPlaywright, DriverRod, c.Driver)
	}
	return nil
}

// URL joins the base URL with an application path
func (c *ProbeConfig) URL(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

// SubmissionURL returns the absolute URL of the create form
func (c *ProbeConfig) SubmissionURL() string {
	return c.URL(c.SubmissionPath)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
