package handler

import (
	"net/http"
	"time"

	"github.com/loanease/loanease-go/internal/domain"
	"github.com/loanease/loanease-go/internal/infra/observability"
	"github.com/loanease/loanease-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(orch *service.Orchestrator, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(orch))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		// Chat conversation
		r.Get("/chat/init", chatInitHandler(orch, logger))
		r.Post("/chat/send", chatSendHandler(orch, logger))
		r.Post("/chat/upload-salary-slip", uploadSalarySlipHandler(orch, logger))
		r.Get("/chat/session/{sessionId}", getSessionHandler(orch, logger))
		r.Get("/chat/sanction-letter", sanctionLetterHandler(orch, logger))
		r.Get("/chat/sanction-letter/download", sanctionLetterDownloadHandler(orch, logger))

		// Demo reference data
		r.Get("/customers", customersHandler(orch))
		r.Get("/credit-bureau/{customerId}", creditBureauHandler(orch, logger))
		r.Get("/offers/{customerId}", offersHandler(orch, logger))

		// Funnel metrics
		r.Get("/metrics/funnel", funnelMetricsHandler(metrics))
	})

	return r
}

func healthzHandler(orch *service.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		// The directory is in-process; a lookup doubles as its health probe.
		start := time.Now()
		_, err := orch.CreditReport("CUST001")
		directoryStatus := "healthy"
		if err != nil {
			directoryStatus = "degraded"
		}

		services := []domain.ServiceHealth{
			{Name: "loanease-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
			{Name: "customer-directory", Status: directoryStatus, LatencyMs: time.Since(start).Milliseconds(), LastChecked: now},
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func funnelMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.FunnelSnapshot())
	}
}

func customersHandler(orch *service.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, orch.Customers())
	}
}

func creditBureauHandler(orch *service.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := orch.CreditReport(chi.URLParam(r, "customerId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func offersHandler(orch *service.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offers, err := orch.Offers(chi.URLParam(r, "customerId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, offers)
	}
}
