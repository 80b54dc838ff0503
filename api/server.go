/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/event-types/*    Event type catalog
  /api/employees/*      Employee profiles
  /api/usage-records    Usage record feed
  /api/timesheets/*     Timesheet lifecycle and line edits
  /api/invoices/*       Mutual-aid billing
  /api/settings/*       Pay parameters, holidays, billing settings

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Catalog routes
		r.Route("/event-types", func(r chi.Router) {
			r.Get("/", h.ListEventTypes)
			r.Post("/", h.CreateEventType)
			r.Post("/{code}/pay-code", h.MapPayCode)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
		})

		// Usage record feed
		r.Post("/usage-records", h.AddUsageRecords)

		// Timesheet routes
		r.Route("/timesheets", func(r chi.Router) {
			r.Get("/", h.ListTimesheets)
			r.Post("/generate", h.GenerateTimesheets)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetTimesheet)
				r.Delete("/", h.DeleteTimesheet)
				r.Post("/validate", h.ValidateTimesheet)
				r.Post("/export", h.ExportTimesheet)
				r.Post("/lines", h.AddManualLine)
				r.Put("/lines/{lineID}", h.EditLine)
				r.Delete("/lines/{lineID}", h.RemoveLine)
			})
		})

		// Billing routes
		r.Route("/invoices", func(r chi.Router) {
			r.Post("/preview", h.PreviewInvoice)
			r.Post("/", h.FinalizeInvoice)
		})

		// Configuration routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/pay-parameters", h.GetPayParameters)
			r.Put("/pay-parameters", h.UpdatePayParameters)
			r.Get("/holidays", h.ListHolidays)
			r.Put("/holidays", h.UpdateHolidays)
			r.Get("/billing", h.GetBillingSettings)
			r.Put("/billing", h.UpdateBillingSettings)
		})
	})

	return r
}
