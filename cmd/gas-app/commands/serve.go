package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/gas-app/internal/attachment"
	"github.com/iyhunko/gas-app/internal/auth"
	"github.com/iyhunko/gas-app/internal/config"
	"github.com/iyhunko/gas-app/internal/geocode"
	httpAPI "github.com/iyhunko/gas-app/internal/http"
	"github.com/iyhunko/gas-app/internal/http/controller"
	"github.com/iyhunko/gas-app/internal/http/middleware"
	"github.com/iyhunko/gas-app/internal/metrics"
	repo "github.com/iyhunko/gas-app/internal/repository/sql"
	"github.com/iyhunko/gas-app/internal/service"
	sqspkg "github.com/iyhunko/gas-app/internal/sqs"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
	localAssetPath  = "/system"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server and the outbox worker",
	RunE: func(cmd *cobra.Command, _ []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, conf)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, conf *config.Config) error {
	db, err := repo.StartDB(ctx, conf.Database)
	if err != nil {
		return fmt.Errorf("error while starting database: %w", err)
	}
	defer db.Close()

	txRepo := repo.NewTransactionalRepository(db)
	repos := txRepo.Repositories()
	hasher := auth.NewHasher(0)

	var store auth.SessionStore
	if conf.Redis.Addr != "" {
		client, err := auth.NewRedisClient(ctx, conf.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		store = auth.NewRedisSessionStore(client)
		slog.Info("Session registry enabled", slog.String("addr", conf.Redis.Addr))
	}
	sessions := auth.NewSessions(conf.Session.Secret, conf.Session.TTL, repos.Producers, hasher, store)

	photoStore, baseURL, err := newPhotoStore(ctx, conf)
	if err != nil {
		return err
	}
	attacher := attachment.NewAttacher(photoStore, baseURL)

	producerService := service.NewProducerService(repos, txRepo, hasher, geocode.New(conf.Geocoder), attacher)
	productService := service.NewProductService(repos, txRepo, attacher)

	sqsClient, err := sqspkg.NewClient(ctx, conf.AWS.Region, conf.AWS.Endpoint)
	if err != nil {
		return fmt.Errorf("error while creating SQS client: %w", err)
	}
	publisher := sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL)
	outboxWorker := service.NewOutboxWorker(repos.Events, publisher, conf.Outbox.Interval, workerID())
	go outboxWorker.Start(ctx)
	defer outboxWorker.Stop()

	if !conf.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := httpAPI.InitRouter(conf, gin.New(), middleware.New(sessions), httpAPI.Controllers{
		Base:     controller.New(),
		Producer: controller.NewProducerController(producerService),
		Product:  controller.NewProductController(producerService, productService, attacher),
		Session:  controller.NewSessionController(sessions),
	})
	if err != nil {
		return fmt.Errorf("error while building router: %w", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + conf.HTTPServer.Port,
		Handler:           middleware.MethodOverride(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", slog.String("port", conf.HTTPServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	metricsServer := metrics.StartMetricsServer(conf)

	select {
	case <-ctx.Done():
		slog.Info("Shutting down gracefully...")
	case err = <-serverErr:
		slog.Error("error while listening to HTTP requests", slog.Any("err", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to stop HTTP server", slog.Any("err", err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to stop metrics server", slog.Any("err", err))
	}
	return err
}

// newPhotoStore picks S3 when a bucket is configured and the local directory otherwise.
func newPhotoStore(ctx context.Context, conf *config.Config) (attachment.Store, string, error) {
	if conf.Storage.Bucket != "" {
		client, err := attachment.NewS3Client(ctx, conf.AWS.Region, conf.AWS.Endpoint)
		if err != nil {
			return nil, "", fmt.Errorf("error while creating S3 client: %w", err)
		}
		baseURL := conf.Storage.AssetBaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", conf.Storage.Bucket, conf.AWS.Region)
		}
		return attachment.NewS3Store(client, conf.Storage.Bucket), baseURL, nil
	}
	baseURL := conf.Storage.AssetBaseURL
	if baseURL == "" {
		baseURL = localAssetPath
	}
	return attachment.NewFileStore(conf.Storage.Dir), baseURL, nil
}

func workerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "gas-app"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
