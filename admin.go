package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"messaging-service/internal/auth"
	"messaging-service/internal/config"
	"messaging-service/internal/db"
	"messaging-service/internal/events"
	"messaging-service/internal/logger"
	"messaging-service/internal/rabbitmq"
	"messaging-service/internal/repositories"
	"messaging-service/internal/services"
	"messaging-service/internal/telemetry"
)

var (
	purgeUserID   int
	newUsername   string
	newEmail      string
	tokenLifetime time.Duration
)

func init() {
	purgeCmd.Flags().IntVar(&purgeUserID, "id", 0, "user id to purge")
	_ = purgeCmd.MarkFlagRequired("id")

	createUserCmd.Flags().StringVar(&newUsername, "username", "", "username")
	createUserCmd.Flags().StringVar(&newEmail, "email", "", "contact email")
	createUserCmd.Flags().DurationVar(&tokenLifetime, "token-ttl", 24*time.Hour, "lifetime of the printed access token")
	_ = createUserCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(migrateCmd, purgeCmd, createUserCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		database, err := db.Connect(cmd.Context(), cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer database.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "schema applied (%s)\n", database.DriverName())
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge-user",
	Short: "Delete a user and every record referencing them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.Env)
		if err != nil {
			return err
		}
		defer log.Sync()

		database, err := db.Connect(cmd.Context(), cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer database.Close()

		publisher := rabbitmq.NewPublisher(log, cfg.AMQPURL, cfg.AMQPExchange, serviceName)
		defer publisher.Close()

		purge := services.NewPurgeService(repositories.NewStore(database),
			services.WithLogger(log),
			services.WithEvents(events.NewEmitter(log, publisher)),
			services.WithAuditor(telemetry.NewAuditEmitter(log, publisher, auditRoutingKey, serviceName, cfg.Env)),
		)
		result, err := purge.Purge(cmd.Context(), purgeUserID)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a local identity and print an access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		database, err := db.Connect(cmd.Context(), cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer database.Close()

		user, err := repositories.NewUserRepo(database).CreateUser(cmd.Context(), newUsername, newEmail)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		token, err := auth.NewJWTValidator(cfg.JWTSecret).IssueToken(user.ID, tokenLifetime)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "id=%d username=%s\ntoken=%s\n", user.ID, user.Username, token)
		return nil
	},
}
