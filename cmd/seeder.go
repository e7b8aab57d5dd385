package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/talentdesk/backoffice/internal"
	"github.com/talentdesk/backoffice/internal/auth"
	"github.com/talentdesk/backoffice/internal/store"
	"github.com/talentdesk/backoffice/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the store with sample data",
	Long:  `Seed the remote store with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		ctx := context.Background()
		gateway := store.NewRESTGateway(store.Config{
			BaseURL:        cfg.Store.BaseURL,
			AuthToken:      cfg.Store.AuthToken,
			RequestTimeout: cfg.Store.RequestTimeout,
		}, logger.L())

		if clearData {
			for _, path := range []string{"users", "departments", "assets", "projects", "accounts"} {
				if err := gateway.Delete(ctx, path); err != nil {
					log.Fatalf("failed to clear %s: %v", path, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		tokenGen := auth.NewJWTTokenGenerator(
			cfg.Security.JWTAccessSecret,
			cfg.Security.JWTRefreshSecret,
			cfg.Security.AccessTokenDuration,
			cfg.Security.RefreshTokenDuration,
		)
		authService := auth.NewService(gateway, tokenGen, cfg.Security.BCryptCost, logger.L())

		adminEmail := "admin@talentdesk.example"
		adminKey, err := authService.CreateAccount(ctx, adminEmail, "password")
		if err != nil {
			if errors.Is(err, internal.ErrEmailAlreadyInUse) {
				fmt.Println("admin account already exists:", adminEmail)
			} else {
				log.Fatalf("failed to seed admin account: %v", err)
			}
		} else {
			admin := map[string]any{
				"firstName":      "Ada",
				"lastName":       "Admin",
				"email":          adminEmail,
				"functionalRole": "admin",
				"accountStatus":  "Active",
			}
			if err := gateway.Set(ctx, store.Join("users", adminKey), admin); err != nil {
				log.Fatalf("failed to seed admin user: %v", err)
			}
			fmt.Println("Seeded admin user:", adminEmail)
		}

		departments := []map[string]any{
			{"name": "Engineering", "description": "Product development"},
			{"name": "Human Resources", "description": "People operations"},
		}
		for _, d := range departments {
			if _, err := gateway.Push(ctx, "departments", d); err != nil {
				log.Fatalf("failed to seed department: %v", err)
			}
		}
		fmt.Printf("Seeded %d departments\n", len(departments))

		assets := []map[string]any{
			{"name": "MacBook Pro 14", "category": "laptop", "serialNumber": "MBP-1401", "status": "available"},
			{"name": "Dell U2723QE", "category": "monitor", "serialNumber": "DU-2701", "status": "available"},
			{"name": "iPhone 15", "category": "phone", "serialNumber": "IP-1501", "status": "available"},
		}
		for _, a := range assets {
			if _, err := gateway.Push(ctx, "assets", a); err != nil {
				log.Fatalf("failed to seed asset: %v", err)
			}
		}
		fmt.Printf("Seeded %d assets\n", len(assets))

		projects := []map[string]any{
			{"title": "Retail Platform Relaunch", "description": "E-commerce replatform for a retail client", "order": 0},
			{"title": "Logistics Dashboard", "description": "Realtime fleet tracking dashboard", "order": 1},
		}
		for _, p := range projects {
			if _, err := gateway.Push(ctx, "projects", p); err != nil {
				log.Fatalf("failed to seed project: %v", err)
			}
		}
		fmt.Printf("Seeded %d projects\n", len(projects))
	},
}
