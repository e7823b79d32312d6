package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/llm"
	openai "resume-tailor/internal/llm/openai"
	"resume-tailor/internal/services/health"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/server"
	"resume-tailor/internal/shared/storage/spool"
	"resume-tailor/internal/tailor"
)

// App holds shared dependencies.
type App struct {
	Config        config.Config
	Router        *gin.Engine
	Spool         *spool.Store
	LLM           llm.Client
	TailorService *tailor.Service
	TailorHandler *tailor.Handler
	Health        *health.Service
}

// Build wires the tailoring service and its router from configuration.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	store, err := spool.New(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}

	client, err := BuildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Spool:  store,
		LLM:    client,
		Health: health.NewService(cfg.LLMModel),
	}
	app.TailorService = tailor.NewService(extract.Extractor{}, client)
	app.TailorHandler = tailor.NewHandler(app.TailorService, store, cfg.MaxUploadBytes)
	if app.TailorHandler == nil {
		return nil, errors.New("failed to initialize handlers")
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        cfg,
		TailorHandler: app.TailorHandler,
		Health:        app.Health,
	})
	return app, nil
}

// BuildLLM constructs the completion client, wrapped in bounded retry when
// LLM_MAX_RETRIES is set.
func BuildLLM(cfg config.Config) (llm.Client, error) {
	client, err := openai.NewClient(openai.Options{
		APIURL:      cfg.LLMAPIURL,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		Timeout:     time.Duration(cfg.LLMTimeoutSecs) * time.Second,
		AppURL:      cfg.LLMAppURL,
		AppTitle:    cfg.LLMAppTitle,
	})
	if err != nil {
		return nil, err
	}
	return llm.NewRetrying(client, cfg.LLMMaxRetries, 0), nil
}
