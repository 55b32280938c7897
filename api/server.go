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
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for a payroll frontend

ROUTE GROUPS:
  /api/jurisdictions/*  Rule table: list, history, publish, resolve, holidays
  /api/employees/*      Employees, work records, holiday pay, leave
  /api/holiday-pay/*    Stateless compute and stored results
  /api/payroll/*        Holiday payroll runs
  /api/scenarios/*      Demo scenarios
  /healthz              Liveness plus loaded table digest
  /metrics              Prometheus

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/statpay/serve.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins ...string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Fingerprint-Verified"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", h.Metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Rule table routes
		r.Route("/jurisdictions", func(r chi.Router) {
			r.Get("/", h.ListJurisdictions)
			r.Route("/{province}", func(r chi.Router) {
				r.Get("/rules", h.GetRules)
				r.Post("/rules", h.PublishRuleSet)
				r.Post("/supersede", h.SupersedeRuleSet)
				r.Get("/resolve", h.ResolveRuleSet)
				r.Get("/holidays", h.ListHolidays)
			})
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/work-records", h.ListWorkRecords)
			r.Post("/{id}/work-records", h.AppendWorkRecords)
			r.Post("/{id}/holiday-pay", h.ComputeEmployeeHolidayPay)
			r.Get("/{id}/results", h.ListResults)
			r.Post("/{id}/leave", h.LeaveEntitlement)
		})

		// Holiday pay routes
		r.Route("/holiday-pay", func(r chi.Router) {
			r.Post("/compute", h.ComputeHolidayPay)
			r.Get("/results/{id}", h.GetResult)
			r.Get("/results/{id}/audit", h.GetResultAudit)
		})

		// Payroll routes
		r.Route("/payroll", func(r chi.Router) {
			r.Post("/holiday-pay", h.RunPayroll)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
