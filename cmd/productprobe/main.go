package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	internalcli "github.com/adyen/productprobe/internal/cli"
	"github.com/adyen/productprobe/internal/config"
	"github.com/adyen/productprobe/internal/logging"
	"github.com/adyen/productprobe/internal/repository"
	"github.com/adyen/productprobe/internal/scenario"
)

var version = "0.1.0"

// newLogger builds the process logger from LOG_FORMAT and LOG_LEVEL
func newLogger() (*zap.Logger, error) {
	return logging.New(os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))
}

// loadProbeConfig loads the probe configuration from the environment and applies global flags
func loadProbeConfig(c *cli.Context) (*config.ProbeConfig, error) {
	cfg, err := config.ReadProbeConfig(os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("invalid probe configuration: %w", err)
	}

	if c.IsSet("base-url") {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("driver") {
		cfg.Driver = strings.ToLower(c.String("driver"))
	}
	if c.IsSet("headed") {
		cfg.Headless = !c.Bool("headed")
	}
	if c.IsSet("screenshots") {
		cfg.ScreenshotDir = c.String("screenshots")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid probe configuration: %w", err)
	}
	return cfg, nil
}

// ServeCommand returns the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the sandbox storefront",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "templates",
				Usage: "directory holding the storefront templates",
				Value: "templates",
			},
		},
		Action: func(c *cli.Context) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			deps, err := internalcli.NewStorefrontDependencies(
				config.LoadServerConfig(os.Getenv),
				c.String("templates"),
				repository.NewProductStore(),
				logger,
			)
			if err != nil {
				return err
			}

			return internalcli.RunServe(deps)
		},
	}
}

// DiscoverCommand returns the discover command
func DiscoverCommand() *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Probe candidate routes for the create product form",
		Action: func(c *cli.Context) error {
			cfg, err := loadProbeConfig(c)
			if err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			factory, stop, err := internalcli.OpenBrowser(cfg)
			if err != nil {
				return err
			}
			defer stop()

			_, err = internalcli.RunDiscover(cfg, factory, logger, c.App.Writer)
			return err
		},
	}
}

// RunCommand returns the run command
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the create product scenarios",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "scenario",
				Usage: "scenario to run (repeatable); all when omitted",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadProbeConfig(c)
			if err != nil {
				return err
			}
			resultsCfg, err := config.LoadResultsConfig(os.Getenv)
			if err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			scenarios, err := scenario.Select(scenario.Catalogue(&scenario.ProductIDGenerator{}), c.StringSlice("scenario")...)
			if err != nil {
				return err
			}

			store, closeStore, err := internalcli.OpenResultStore(resultsCfg)
			if err != nil {
				return err
			}
			defer closeStore()

			factory, stop, err := internalcli.OpenBrowser(cfg)
			if err != nil {
				return err
			}
			defer stop()

			runner := &scenario.Runner{
				Factory: factory,
				Config:  cfg,
				Logger:  logger,
				Store:   store,
			}
			_, err = internalcli.RunScenarios(runner, scenarios, c.App.Writer)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	app := &cli.App{
		Name:    "productprobe",
		Usage:   "Browser checks for a create product form",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "base-url", Usage: "application base URL (PROBE_BASE_URL)"},
			&cli.StringFlag{Name: "driver", Usage: "browser backend: playwright or rod (PROBE_DRIVER)"},
			&cli.BoolFlag{Name: "headed", Usage: "show the browser window"},
			&cli.StringFlag{Name: "screenshots", Usage: "directory for failure screenshots (PROBE_SCREENSHOT_DIR)"},
		},
		Commands: []*cli.Command{
			ServeCommand(),
			DiscoverCommand(),
			RunCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		log.Fatal(err)
	}
}
