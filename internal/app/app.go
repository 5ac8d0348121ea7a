package app

import (
	"context"
	"time"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/config"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/core"
	db "github.com/JeyllonSandoval/agritech-backend-sub001/internal/core/database"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/core/extract"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/core/llm"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/core/mail"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/core/objectstore"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/ecowitt"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/logs"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/weather"
)

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	LLM          *llm.GeminiLLM
	Server       *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	logs.Logger.Info("database initialized and ready")

	objClient, err := objectstore.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, err
	}

	var mailer core.Mailer
	if cfg.SMTPHost != "" {
		m, err := mail.NewSMTPMailer(cfg)
		if err != nil {
			return nil, err
		}
		mailer = m
	} else {
		logs.Logger.Warn("SMTP_HOST not set; verification and reset mail disabled")
	}

	vendorClient := ecowitt.NewClient(cfg.EcowittBaseURL)
	weatherClient := weather.NewClient(cfg.WeatherBaseURL, cfg.GeocodeBaseURL, cfg.WeatherAPIKey)
	extractor := extract.NewDocconvExtractor(false)

	server := NewServer(cfg, Deps{
		DB:        dbClient,
		Objects:   objClient,
		LLM:       llmProvider,
		Mailer:    mailer,
		Vendor:    vendorClient,
		Weather:   weatherClient,
		Extractor: extractor,
	})

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		LLM:          llmProvider,
		Server:       server,
	}, nil
}

func (a *App) Close() {
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
