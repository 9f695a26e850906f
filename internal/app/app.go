package app

import (
	"fmt"
	"net/http"

	"emotionserver/internal/config"
	"emotionserver/internal/logger"
	"emotionserver/internal/repository"
	"emotionserver/internal/repository/sqlite"
	"emotionserver/internal/routes"
	"emotionserver/internal/services/classify"
	"emotionserver/internal/services/detect"
	"emotionserver/internal/services/predictor"
	"emotionserver/internal/services/websocket"
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	detector   *detect.CascadeDetector
	classifier *classify.EmotionNet
	repository repository.PredictionRepository
	hubService *websocket.HubService
	predictor  *predictor.Service
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	detector, err := detect.NewCascadeDetector(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("could not initialize face detector: %w", err)
	}

	classifier, err := classify.NewEmotionNet(cfg, log)
	if err != nil {
		detector.Close()
		return nil, fmt.Errorf("could not initialize emotion classifier: %w", err)
	}

	repo, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		detector.Close()
		classifier.Close()
		return nil, fmt.Errorf("could not open prediction history: %w", err)
	}

	hub := websocket.NewHubService(log)
	pred := predictor.NewService(detector, classifier, cfg, log)

	return &App{
		config:     cfg,
		logger:     log,
		detector:   detector,
		classifier: classifier,
		repository: repo,
		hubService: hub,
		predictor:  pred,
	}, nil
}

func (a *App) Run() error {
	go a.hubService.Run()

	router := routes.SetupRoutes(a.predictor, a.repository, a.hubService, a.config, a.logger)

	fmt.Printf("🙂 Emotion Recognition Server\n")
	fmt.Printf("📍 URL: http://%s:%d\n", a.config.Host, a.config.Port)
	fmt.Printf("🤖 Model: %s\n", a.config.ModelPath)
	fmt.Printf("👤 Cascade: %s\n", a.config.CascadePath)
	fmt.Printf("🎭 Emotions: %v\n", a.config.EmotionLabels)

	a.logger.Info("Server listening on %s:%d", a.config.Host, a.config.Port)

	return http.ListenAndServe(fmt.Sprintf("%s:%d", a.config.Host, a.config.Port), router)
}

// Close releases the shared models and the history database.
func (a *App) Close() {
	a.detector.Close()
	a.classifier.Close()
	if err := a.repository.Close(); err != nil {
		a.logger.Error("Error closing prediction history: %v", err)
	}
}
