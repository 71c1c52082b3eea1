package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ngfenglong/JiakAIBot/bot"
	"github.com/ngfenglong/JiakAIBot/config"
	"github.com/ngfenglong/JiakAIBot/routes"
	"github.com/ngfenglong/JiakAIBot/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := services.NewFirestoreService(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
	if err != nil {
		log.Fatalf("init firestore: %v", err)
	}
	defer store.Close()

	recognizer := services.NewOpenAIService(cfg.OpenAIKey, cfg.OpenAIModel)
	resolver := services.NewNutritionixService(cfg.NutritionixAppID, cfg.NutritionixAPIKey, cfg.ResolveTimeout)
	access := services.NewAccessControl(cfg.AuthorizedIDs, store)
	meals := services.NewMealLogService(recognizer, resolver, store, services.Timeouts{
		Recognize: cfg.RecognizeTimeout,
		Resolve:   cfg.ResolveTimeout,
		Store:     cfg.StoreTimeout,
	})

	var archive bot.PhotoArchive
	if cfg.S3Bucket != "" {
		s3svc, err := services.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			log.Fatalf("init s3: %v", err)
		}
		archive = s3svc
	}

	b, err := bot.New(cfg.TelegramToken, access, meals, store, archive, cfg.Workers)
	if err != nil {
		log.Fatalf("init bot: %v", err)
	}

	r := routes.SetupRouter(cfg.AdminAPIToken, store)
	go func() {
		if err := r.Run(cfg.HTTPAddr); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	b.Run(ctx)
}
