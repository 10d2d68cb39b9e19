package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sdslens/backend/config"
	httpDelivery "github.com/sdslens/backend/internal/delivery/http"
	"github.com/sdslens/backend/internal/domain"
	"github.com/sdslens/backend/internal/infrastructure/ocrengine"
	"github.com/sdslens/backend/internal/infrastructure/scrape"
	"github.com/sdslens/backend/internal/infrastructure/search"
	"github.com/sdslens/backend/internal/infrastructure/store"
	"github.com/sdslens/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting SDSLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Store: %s", cfg.Store.Type)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Product store
	var productStore domain.ProductRepository
	switch cfg.Store.Type {
	case "sqlite":
		productStore, err = store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to open product store: %v", err)
		}
		log.Printf("Product store: sqlite at %s", cfg.Store.Path)
	default:
		productStore = store.NewMemoryStore()
		log.Printf("Product store: in-memory (records do not survive restarts)")
	}
	defer productStore.Close()

	// Search tiers: browser-rendered first, direct fetch as fallback. The
	// browser session is shared process-wide and released on shutdown.
	var browserTier search.Tier
	var session *search.BrowserSession
	if cfg.Search.BrowserEnabled {
		session = search.NewBrowserSession(cfg.Search.BrowserHeadless)
		defer session.Release()
		browserTier = search.NewBrowserTier(session, cfg.Search.BaseURL, cfg.Search.MaxResults, cfg.Search.Timeout)
	} else {
		log.Printf("WARNING: browser search tier disabled, running direct tier only")
	}
	directTier := search.NewDirectTier(
		cfg.Search.BaseURL,
		cfg.Search.MaxResults,
		cfg.Search.Timeout,
		cfg.Search.RatePerSec,
		cfg.Search.Burst,
	)
	provider := search.NewProvider(browserTier, directTier)

	extractor := scrape.NewExtractor(cfg.Scrape.Timeout)

	// Usecase layer
	resolutionService := usecase.NewResolutionService(
		productStore,
		provider,
		extractor,
		usecase.ResolutionServiceConfig{
			MaxConcurrentExtractions: cfg.Scrape.MaxConcurrent,
		},
	)

	ocrService := usecase.NewOCRService(
		ocrengine.NewTesseractEngine(cfg.OCR.Language),
		usecase.OCRServiceConfig{
			PaddingRatio: cfg.OCR.PaddingRatio,
			MaxWidth:     cfg.OCR.MaxWidth,
		},
	)

	log.Printf("OCR: language=%s, maxWidth=%d, paddingRatio=%.2f",
		cfg.OCR.Language, cfg.OCR.MaxWidth, cfg.OCR.PaddingRatio)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(resolutionService, ocrService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if session != nil {
		session.Release()
	}
	log.Printf("Server stopped")
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
