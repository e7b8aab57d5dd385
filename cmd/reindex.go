package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/talentdesk/backoffice/internal/indexer"
	"github.com/talentdesk/backoffice/internal/store"
	"github.com/talentdesk/backoffice/pkg/logger"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the denormalized list indexes",
	Long:  `Scan the client registrations and user collections and rebuild the flat index records the list screens read.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		gateway := store.NewRESTGateway(store.Config{
			BaseURL:        cfg.Store.BaseURL,
			AuthToken:      cfg.Store.AuthToken,
			RequestTimeout: cfg.Store.RequestTimeout,
		}, logger.L())

		report, err := indexer.NewService(gateway, logger.L()).Rebuild(context.Background())
		if err != nil {
			log.Fatalf("reindex failed: %v", err)
		}

		fmt.Printf("indexed %d registrations and %d employees\n", report.Registrations, report.Employees)
	},
}
