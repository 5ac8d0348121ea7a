package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/aggregate"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/api/handlers"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/api/middlewares"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/config"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/core"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/logs"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/report"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// Deps carries the infrastructure the handlers need.
type Deps struct {
	DB        core.DbClient
	Objects   core.ObjectClient
	LLM       core.LLMProvider
	Mailer    core.Mailer
	Vendor    aggregate.Vendor
	Weather   report.WeatherSource
	Extractor core.TextExtractor
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, deps Deps) *Server {
	authHandler := handlers.NewAuthHandler(deps.DB, deps.Mailer, cfg)
	deviceHandler := handlers.NewDeviceHandler(deps.DB, deps.Vendor)
	groupHandler := handlers.NewGroupHandler(deps.DB, deps.Vendor)
	chatHandler := handlers.NewChatHandler(deps.DB, deps.Objects, deps.Extractor, deps.LLM, cfg)
	fileHandler := handlers.NewFileHandler(deps.DB, deps.Objects, cfg)
	reportHandler := handlers.NewReportHandler(deps.DB, deps.Objects,
		report.NewGenerator(deps.Vendor, deps.Weather), cfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/register", authHandler.Register)
		api.Post("/login", authHandler.Login)
		api.Get("/verify-email/{token}", authHandler.VerifyEmail)
		api.Post("/resend-verification", authHandler.ResendVerification)
		api.Post("/request-password-reset", authHandler.RequestPasswordReset)
		api.Post("/reset-password", authHandler.ResetPassword)
		api.Get("/countries", authHandler.ListCountries)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(middlewares.NewJWTMiddleware(cfg.JWTSecret))

			protected.Get("/devices", deviceHandler.List)
			protected.Post("/devices", deviceHandler.Create)
			protected.Get("/devices/{deviceId}", deviceHandler.Get)
			protected.Put("/devices/{deviceId}", deviceHandler.Update)
			protected.Delete("/devices/{deviceId}", deviceHandler.Delete)
			protected.Get("/devices/{deviceId}/realtime", deviceHandler.Realtime)
			protected.Get("/devices/{deviceId}/history", deviceHandler.History)
			protected.Get("/devices/{deviceId}/info", deviceHandler.Info)
			protected.Post("/compare/realtime", deviceHandler.CompareRealtime)
			protected.Post("/compare/history", deviceHandler.CompareHistory)

			protected.Get("/groups", groupHandler.List)
			protected.Post("/groups", groupHandler.Create)
			protected.Get("/groups/{groupId}", groupHandler.Get)
			protected.Put("/groups/{groupId}", groupHandler.Update)
			protected.Delete("/groups/{groupId}", groupHandler.Delete)
			protected.Get("/groups/{groupId}/realtime", groupHandler.Realtime)
			protected.Get("/groups/{groupId}/history", groupHandler.History)

			protected.Post("/reports/device", reportHandler.Device)
			protected.Post("/reports/group", reportHandler.Group)

			protected.Get("/chats", chatHandler.List)
			protected.Post("/chats", chatHandler.Create)
			protected.Delete("/chats/{chatId}", chatHandler.Delete)
			protected.Get("/chats/{chatId}/messages", chatHandler.ListMessages)
			protected.Post("/messages", chatHandler.CreateMessage)
			protected.Post("/read-pdf", chatHandler.ReadPDF)

			protected.Get("/files", fileHandler.List)
			protected.Post("/files", fileHandler.Upload)
			protected.Delete("/files/{fileId}", fileHandler.Delete)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	logs.Logger.Infof("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logs.Logger.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logs.Logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
