package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/productprobe/internal/config"
	"github.com/adyen/productprobe/internal/handlers"
	"github.com/adyen/productprobe/internal/logging"
	"github.com/adyen/productprobe/internal/services"
)

// ServerDependencies holds all dependencies needed for the storefront server
type ServerDependencies struct {
	ServerConfig       config.ServerConfig
	Logger             *zap.Logger
	ProductFormHandler http.Handler
	ProductListHandler http.Handler
	ProductAPIHandler  http.Handler
	HealthHandler      http.Handler
}

// NewStorefrontDependencies wires the storefront handlers to a product store, loading
// templates from templateDir
func NewStorefrontDependencies(cfg config.ServerConfig, templateDir string, store services.ProductRepository, logger *zap.Logger) (ServerDependencies, error) {
	productService := services.NewProductService(store)
	deps := ServerDependencies{
		ServerConfig:  cfg,
		Logger:        logger,
		HealthHandler: http.HandlerFunc(handlers.HealthHandler),
	}

	formHandler, err := handlers.NewProductFormHandler(filepath.Join(templateDir, "product_form.html"), productService, "/products", logger)
	if err != nil {
		return deps, fmt.Errorf("failed to create product form handler: %w", err)
	}
	deps.ProductFormHandler = formHandler

	listHandler, err := handlers.NewProductListHandler(filepath.Join(templateDir, "products.html"), productService, logger)
	if err != nil {
		return deps, fmt.Errorf("failed to create product list handler: %w", err)
	}
	deps.ProductListHandler = listHandler

	deps.ProductAPIHandler = handlers.NewProductAPIHandler(productService, logger)

	return deps, nil
}

// NewMux registers the storefront routes
func NewMux(deps ServerDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/product/new", deps.ProductFormHandler)
	mux.Handle("/products", deps.ProductListHandler)
	mux.Handle("/api/products", deps.ProductAPIHandler)
	mux.Handle("/health", deps.HealthHandler)
	mux.Handle("/{$}", http.RedirectHandler("/product/new", http.StatusFound))
	return mux
}

// RunServe starts the storefront and blocks until an interrupt signal
func RunServe(deps ServerDependencies) error {
	listener, server, err := StartServer(deps)
	if err != nil {
		return err
	}
	defer listener.Close()

	return WaitForShutdown(server, nil, deps.Logger)
}

// StartServer creates and starts the HTTP server, returning the listener and server
func StartServer(deps ServerDependencies) (net.Listener, *http.Server, error) {
	logger := logging.OrNop(deps.Logger)

	// Create listener
	addr := fmt.Sprintf(":%s", deps.ServerConfig.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create listener: %w", err)
	}

	// Create HTTP server
	server := &http.Server{
		Handler:           NewMux(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", zap.String("addr", listener.Addr().String()))
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	return listener, server, nil
}

// WaitForShutdown waits for a shutdown signal and gracefully shuts down the server
// If shutdown channel is nil, a new channel will be created and registered with signal.Notify
func WaitForShutdown(server *http.Server, shutdown chan os.Signal, logger *zap.Logger) error {
	return WaitForShutdownWithTimeout(server, shutdown, 30*time.Second, logger)
}

// WaitForShutdownWithTimeout allows specifying a custom shutdown timeout (primarily for testing)
func WaitForShutdownWithTimeout(server *http.Server, shutdown chan os.Signal, shutdownTimeout time.Duration, logger *zap.Logger) error {
	logger = logging.OrNop(logger)

	// Channel to listen for interrupt or terminate signals
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(shutdown)
	}

	sig := <-shutdown
	logger.Info("shutting down server", zap.Stringer("signal", sig))

	// Give outstanding requests time to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		// http.Server.Close does not propagate listener close errors, so this only fails
		// if the server was never usable
		if err := server.Close(); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}
