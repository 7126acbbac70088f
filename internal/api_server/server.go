package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/synthetica/platform/internal/auth"
	"github.com/synthetica/platform/internal/config"
	"github.com/synthetica/platform/internal/events"
	"github.com/synthetica/platform/internal/gcp"
	"github.com/synthetica/platform/internal/genai"
	handlers "github.com/synthetica/platform/internal/handlers/v1alpha1"
	"github.com/synthetica/platform/internal/pipeline"
	"github.com/synthetica/platform/internal/service"
	"github.com/synthetica/platform/internal/storage"
	"github.com/synthetica/platform/internal/store"
	"github.com/synthetica/platform/pkg/metrics"
	"github.com/synthetica/platform/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg         *config.Config
	store       store.Store
	listener    net.Listener
	eventWriter *events.EventProducer
	objectStore storage.ObjectStore
	iam         gcp.IAMClient
	pipeline    pipeline.Client
}

// New returns a new instance of the platform api server.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
	eventWriter *events.EventProducer,
	objectStore storage.ObjectStore,
	iam gcp.IAMClient,
	pipelineClient pipeline.Client,
) *Server {
	return &Server{
		cfg:         cfg,
		store:       store,
		listener:    listener,
		eventWriter: eventWriter,
		objectStore: objectStore,
		iam:         iam,
		pipeline:    pipelineClient,
	}
}

// adminOnly rejects users outside the operator organization.
func adminOnly(adminOrg string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.MustHaveUser(r.Context())
			if !user.IsAdmin(adminOrg) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	authenticator, err := auth.NewAuthenticator(s.cfg.Service.Auth)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"https://console.synthetica.dev", "https://localhost:3000"},
			AllowedMethods:   []string{"GET", "PUT", "PATCH", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		authenticator.Authenticator,
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	jobService := service.NewJobService(s.store, s.pipeline, s.eventWriter)
	h := handlers.NewHandler(
		service.NewCustomerService(s.store, s.iam, s.eventWriter),
		service.NewProjectService(s.store, s.objectStore, s.cfg),
		jobService,
		service.NewDatasetService(s.store, s.objectStore),
		service.NewChatService(s.store, genai.NewClient(s.cfg)),
		service.NewServiceAccountService(s.store, s.iam),
		service.NewEventService(s.eventWriter),
		service.NewStatisticsService(s.store),
	)

	router.Get("/health", h.Health)
	router.Get("/version", h.Version)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Use(adminOnly(s.cfg.Service.AdminOrg))
			r.Get("/", h.ListCustomers)
			r.Post("/", h.CreateCustomer)
			r.Get("/{id}", h.GetCustomer)
			r.Patch("/{id}", h.UpdateCustomer)
			r.Delete("/{id}", h.SuspendCustomer)
			r.Post("/{id}/reactivate", h.ReactivateCustomer)
			r.Post("/{id}/service-account/rotate", h.RotateServiceAccountKey)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/{id}", h.GetProject)
			r.Patch("/{id}", h.UpdateProject)
			r.Delete("/{id}", h.ArchiveProject)
			r.Post("/{id}/members", h.AddProjectMember)
			r.Delete("/{id}/members/{username}", h.RemoveProjectMember)
			r.Get("/{id}/jobs", h.ListJobs)
			r.Post("/{id}/jobs", h.CreateJob)
			r.Get("/{id}/datasets", h.ListDatasets)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/{id}", h.GetJob)
			r.Post("/{id}/cancel", h.CancelJob)
		})

		r.Route("/datasets", func(r chi.Router) {
			r.Get("/{id}/download-url", h.GetDatasetDownloadURL)
			r.Delete("/{id}", h.DeleteDataset)
			r.Post("/{id}/chat", h.ChatWithDataset)
		})

		r.Post("/events", h.PushEvents)

		r.With(adminOnly(s.cfg.Service.AdminOrg)).Get("/admin/statistics", h.GetStatistics)
	})

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
