/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the cost computation engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Build tenant defaults (catalog, pay parameters, holidays)
  4. Create API handler with dependencies
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: costengine.db)
             Use ":memory:" for an in-memory database
  -tenant    Tenant identifier (default: "default")
  -overtime  Enable overtime premium generation (default: true)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/costengine.db"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/firehall/cost-engine/api"
	"github.com/firehall/cost-engine/billing"
	"github.com/firehall/cost-engine/factory"
	"github.com/firehall/cost-engine/store/sqlite"
	"github.com/firehall/cost-engine/timesheet"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "costengine.db", "SQLite database path")
	tenantID := flag.String("tenant", "default", "tenant identifier")
	overtime := flag.Bool("overtime", true, "enable overtime premium generation")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Tenant defaults
	cat := factory.NewCatalog()
	gen := &timesheet.Generator{
		Catalog:         cat,
		Params:          factory.DefaultPayParameters(),
		Holidays:        factory.QuebecHolidays(time.Now().Year()),
		Class:           factory.DefaultClassification(),
		OvertimeEnabled: *overtime,
	}

	invoices := &billing.InvoiceService{Store: &sqlite.InvoiceStore{Store: store}}

	handler := api.NewHandler(*tenantID, cat, gen, store, billing.BillingSettings{
		DefaultTariffs: factory.DefaultTariffs(),
	}, invoices)

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
