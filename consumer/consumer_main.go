package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tnqbao/gau-datagen-service/config"
	"github.com/tnqbao/gau-datagen-service/consumer/worker"
	infraPkg "github.com/tnqbao/gau-datagen-service/infra"
	"github.com/tnqbao/gau-datagen-service/repository"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra)

	// Initialize context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start Generate Consumer
	generateConsumer := worker.NewGenerateConsumer(infra.RabbitMQ.Channel, cfg, infra, repo)
	if err := generateConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start Generate consumer: %v", err)
		log.Fatalf("Failed to start Generate consumer: %v", err)
	}

	// Start Retention Sweeper
	sweeper := worker.NewRetentionSweeper(cfg, infra, repo)
	sweeper.Start(ctx)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel() // Cancel context to stop consumers

	infra.Logger.Shutdown(context.Background())
	infra.RabbitMQ.Close()
	log.Println("Consumer exited properly")
}
