package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cxcontrol/cxcontrol/internal/auth"
	"github.com/cxcontrol/cxcontrol/internal/business"
	"github.com/cxcontrol/cxcontrol/internal/clients"
	"github.com/cxcontrol/cxcontrol/internal/ledger"
	"github.com/cxcontrol/cxcontrol/internal/observability"
	"github.com/cxcontrol/cxcontrol/internal/portal"
	"github.com/cxcontrol/cxcontrol/internal/profile"
	"github.com/cxcontrol/cxcontrol/internal/reports"
	"github.com/cxcontrol/cxcontrol/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Keyring *auth.Keyring

	BusinessService *business.Service

	BusinessHandler *business.Handler
	ClientsHandler  *clients.Handler
	LedgerHandler   *ledger.Handler
	ProfileHandler  *profile.Handler
	PortalHandler   *portal.Handler
	ReportsHandler  *reports.Handler
	JobHandler      *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router.
//
// Staff routes sit behind the API-key gate and the business resolver; every
// operation inside resolves its spreadsheet from the X-Business-ID header or
// the active business. Portal and dashboard verification routes are public
// by design, protected by their own tokens and a tight rate limit.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	resolver := business.Resolver(params.BusinessService)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(params.Keyring.Middleware)

			// The business registry lives in the master sheet and is not
			// scoped to one business, so it mounts outside the resolver.
			r.Route("/negocios", params.BusinessHandler.MountRoutes)

			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}

			r.Group(func(r chi.Router) {
				r.Use(resolver)
				r.Route("/clientes", params.ClientsHandler.MountRoutes)
				r.Route("/facturas", params.LedgerHandler.MountRoutes)
				r.Route("/abonos", params.LedgerHandler.MountPaymentRoutes)
				r.Route("/config", params.ProfileHandler.MountRoutes)
				r.Route("/reportes", params.ReportsHandler.MountRoutes)
				r.Post("/portal/generar-link/{clienteID}", params.PortalHandler.GenerateLink)
				r.With(auth.RequireRole(auth.RoleAdmin)).
					Post("/dashboard/generar-acceso", params.PortalHandler.GenerateDashboardAccess)
			})
		})

		// Token-bearing public surface.
		r.Group(func(r chi.Router) {
			r.Use(resolver)
			r.Route("/portal", func(r chi.Router) {
				r.Get("/info", params.PortalHandler.Info)
				r.Get("/estado-cuenta-pdf", params.PortalHandler.StatementPDF)
				r.With(VerifyRateLimit()).Post("/verificar", params.PortalHandler.Verify)
			})
			r.With(VerifyRateLimit()).Post("/dashboard/verificar", params.PortalHandler.VerifyDashboard)
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
