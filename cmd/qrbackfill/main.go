// Command qrbackfill assigns QR tokens to every user record that lacks one.
// Running it again is harmless: records that already have a token are skipped.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"medilinko/internal/config"
	"medilinko/internal/repository"
	"medilinko/internal/service"
	"medilinko/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	webCfg, err := config.LoadWeb()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("Failed to load DB config: %v", err)
	}

	dbPool, err := config.ConnectDB(dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.AutoMigrate(ctx, dbPool); err != nil {
		log.Fatalf("Failed to auto-migrate database: %v", err)
	}

	tokens := utils.NewQRTokenGenerator()
	qrService := service.NewQRService(repository.NewUserRepository(dbPool), tokens, webCfg.WebURL)

	report, err := qrService.GenerateMissingTokens(ctx)
	if err != nil {
		if report != nil {
			log.Printf("Assigned %d of %d before failing", report.Assigned, report.Scanned)
		}
		log.Fatalf("QR backfill failed: %v", err)
	}

	for _, t := range report.Tokens {
		log.Printf("%s (%s): %s", t.FullName, t.UserID, qrService.ProfileURL(t.QRCodeID))
	}
	log.Printf("QR backfill done: %d scanned, %d assigned", report.Scanned, report.Assigned)
}
