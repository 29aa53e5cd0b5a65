package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imobflow/leadrotor/api/controllers"
	"github.com/imobflow/leadrotor/api/middleware"
	"github.com/imobflow/leadrotor/internal/checkpoint"
	"github.com/imobflow/leadrotor/internal/enforcement"
	"github.com/imobflow/leadrotor/internal/history"
	"github.com/imobflow/leadrotor/internal/redistribution"
	"github.com/imobflow/leadrotor/internal/rotation"
	"github.com/imobflow/leadrotor/pkg/config"
	"github.com/imobflow/leadrotor/pkg/db"
	"github.com/imobflow/leadrotor/pkg/logger"
	"github.com/imobflow/leadrotor/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	gatherer prometheus.Gatherer,
	schedulerService *rotation.Scheduler,
	settingsService *rotation.SettingsService,
	checkpointService *checkpoint.Service,
	enforcementService *enforcement.Service,
	redistributionService *redistribution.Service,
	historyService history.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.Ping())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/rotation", func(r chi.Router) {
			r.Get("/queue", controllers.RotationQueue(schedulerService, logg))
			r.Post("/claim", controllers.RotationClaim(schedulerService, logg))
			r.Get("/settings", controllers.RotationSettingsGet(settingsService, logg))
			r.Put("/settings", controllers.RotationSettingsUpdate(settingsService, logg))
			r.Post("/settings/reload", controllers.RotationSettingsReload(settingsService, logg))
		})

		r.Route("/agents/{agentId}", func(r chi.Router) {
			r.Route("/checkpoint", func(r chi.Router) {
				r.Get("/", controllers.CheckpointGet(checkpointService, logg))
				r.Put("/", controllers.CheckpointEdit(checkpointService, logg))
				r.Post("/run-now", controllers.CheckpointRunNow(checkpointService, logg))
			})
			r.Route("/toggles", func(r chi.Router) {
				r.Get("/", controllers.ToggleStatus(enforcementService, logg))
				r.Post("/", controllers.ToggleSet(enforcementService, logg))
			})
		})

		r.Route("/redistributions", func(r chi.Router) {
			r.Post("/", controllers.RedistributionSubmit(redistributionService, logg))
			r.Get("/", controllers.RedistributionList(redistributionService, logg))
			r.Get("/{jobId}", controllers.RedistributionGet(redistributionService, logg))
			r.Delete("/{jobId}", controllers.RedistributionCancel(redistributionService, logg))
		})

		r.Get("/history", controllers.HistoryList(historyService, logg))
	})

	return r
}
