package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/codegrade/internal/metrics"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	CORSOrigins  []string
	MaxBodyBytes int64
}

// NewRouter mounts the API on a chi router with the standard middleware stack.
func NewRouter(s *Server, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{"ETag", "Location", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	metrics.RegisterHTTPMetrics()
	r.Use(metrics.Middleware())
	r.Use(limitBody(cfg.MaxBodyBytes))

	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/check-answer", s.CheckAnswer)
		r.Post("/construct-answers", s.ConstructAnswers)

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", s.ListQuestions)
			r.Post("/", s.CreateQuestion)
			r.Get("/{id}", s.GetQuestion)
			r.Put("/{id}", s.UpdateQuestion)
			r.Delete("/{id}", s.DeleteQuestion)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}
