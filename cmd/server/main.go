package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/soaringjerry/Solace/internal/api"
	"github.com/soaringjerry/Solace/internal/config"
	"github.com/soaringjerry/Solace/internal/llm"
	"github.com/soaringjerry/Solace/internal/middleware"
	"github.com/soaringjerry/Solace/internal/scheduler"
	"github.com/soaringjerry/Solace/internal/services"
)

func main() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: load .env: %v", err)
	}
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.JWTSecret == "" {
		log.Printf("warning: SOLACE_JWT_SECRET not set, using development secret")
	}
	middleware.SetSecret(cfg.JWTSecret)

	store, closeStore, err := openStore(cfg.DBPath, cfg.MigrationsDir)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Printf("warning: close store: %v", err)
		}
	}()

	detector, err := services.LoadCrisisDetector(cfg.CrisisDataPath)
	if err != nil {
		log.Fatalf("crisis data: %v", err)
	}

	var replier services.Replier
	if cfg.LLMEnabled() {
		replier = api.NewReplier(llm.NewOpenAIClient(llm.Config{
			BaseURL:     cfg.LLMBaseURL,
			APIKey:      cfg.LLMAPIKey,
			Model:       cfg.LLMModel,
			Temperature: cfg.LLMTemperature,
			Timeout:     cfg.LLMTimeout,
		}))
		log.Printf("llm: model %s via %s", cfg.LLMModel, baseURLOrDefault(cfg.LLMBaseURL))
	} else {
		log.Printf("warning: no LLM configured, chat replies use the fallback text")
	}

	router := api.NewRouter(api.Deps{
		Store:      store,
		Replier:    replier,
		Crisis:     detector,
		Signer:     middleware.SignToken,
		TokenTTL:   cfg.TokenTTL,
		AdminUsers: cfg.AdminUsers,
	})

	sched := scheduler.New()
	retention := services.NewRetentionService(store, cfg.RetentionDays)
	if retention.Enabled() {
		err := sched.Add("chat-retention", cfg.RetentionSchedule, func(ctx context.Context) error {
			_, err := retention.Run(ctx)
			return err
		})
		if err != nil {
			log.Fatalf("retention schedule %q: %v", cfg.RetentionSchedule, err)
		}
		sched.Start()
	}
	defer sched.Stop()

	handler := middleware.AccessLog(middleware.SecureHeaders(middleware.NoStore(middleware.CORS(cfg.CORSOrigins)(router.Handler()))))
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Solace server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("warning: shutdown: %v", err)
	}
	log.Printf("Solace server stopped")
}

func baseURLOrDefault(u string) string {
	if u == "" {
		return "api.openai.com"
	}
	return u
}
