package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messaging-service/internal/auth"
	"messaging-service/internal/cache"
	"messaging-service/internal/config"
	"messaging-service/internal/db"
	"messaging-service/internal/events"
	"messaging-service/internal/grpcserver"
	"messaging-service/internal/handlers"
	"messaging-service/internal/logger"
	"messaging-service/internal/middleware"
	"messaging-service/internal/observability"
	"messaging-service/internal/rabbitmq"
	"messaging-service/internal/repositories"
	"messaging-service/internal/services"
	"messaging-service/internal/telemetry"
	"messaging-service/internal/ws"
)

const (
	serviceName     = "messaging-service"
	auditRoutingKey = "audit.messaging"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP, websocket and gRPC health servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	shutdownTracing := observability.InitTracing(ctx, log, observability.TracingConfig{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: serviceName,
		Environment: cfg.Env,
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	database, err := db.Connect(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer database.Close()
	log.Info("database ready", "driver", database.DriverName())

	store := repositories.NewStore(database)

	publisher := rabbitmq.NewPublisher(log, cfg.AMQPURL, cfg.AMQPExchange, serviceName)
	defer publisher.Close()
	log.Info("event publisher", "mode", rabbitmq.PublisherMode(publisher), "noop_reason", rabbitmq.PublisherNoopReason(publisher))

	auditor := telemetry.NewAuditEmitter(log, publisher, auditRoutingKey, serviceName, cfg.Env)
	hub := ws.NewHub(log, publisher)

	opts := []services.Option{
		services.WithLogger(log),
		services.WithEvents(events.NewEmitter(log, publisher)),
		services.WithNotifier(hub),
		services.WithAuditor(auditor),
	}
	if cfg.RedisURL != "" {
		unread, err := cache.NewUnreadCache(ctx, cfg.RedisURL, cfg.UnreadCacheTTL)
		if err != nil {
			log.Warn("unread cache disabled", "reason", err)
		} else {
			defer unread.Close()
			opts = append(opts, services.WithUnreadCache(unread))
			log.Info("unread cache enabled", "ttl", cfg.UnreadCacheTTL.String())
		}
	}

	messages := services.NewMessageService(store, opts...)
	api := handlers.API{
		Threads:       handlers.NewThreadHandler(services.NewThreadService(store, opts...)),
		Messages:      handlers.NewMessageHandler(messages),
		Inbox:         handlers.NewInboxHandler(services.NewInboxService(store, messages, opts...)),
		Notifications: handlers.NewNotificationHandler(services.NewNotificationService(store, opts...)),
		Account:       handlers.NewAccountHandler(services.NewPurgeService(store, opts...)),
	}
	validator := auth.NewJWTValidator(cfg.JWTSecret)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(serviceName),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		observability.HTTPMetricsMiddleware(),
	)

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, auditor, hub, cfg.DebugRoutes)

	window := middleware.AccessWindow(cfg.AccessWindow, nil)
	router.GET("/ws/notifications", window, ws.NewNotificationWebSocketHandler(hub, validator).Handle)
	handlers.RegisterRoutes(router, api, window, middleware.AuthMiddleware(validator))

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcSrv := grpcserver.New(log, database.PingContext)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	go grpcSrv.Watch(ctx, 15*time.Second)

	errCh := make(chan error, 2)
	go func() {
		log.Info("grpc health listening", "addr", cfg.GRPCAddr)
		errCh <- grpcSrv.Serve(lis)
	}()
	go func() {
		log.Info("http listening", "port", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errCh:
		log.Error("server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpSrv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn("http shutdown", "error", shutdownErr)
	}
	grpcSrv.Stop()
	return err
}
