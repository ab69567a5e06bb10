package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/freshmartlabs/freshmart-admin/backend/internal/catalog"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/config"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/gateway"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/logging"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/notify"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/orders"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/server"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "freshmart-admin",
		Short: "FreshMart admin dashboard API",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("store-driver", defaults.GetString("store.driver"), "Document store driver (sqlite, mongo)")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("mongo-uri", defaults.GetString("mongo.uri"), "MongoDB connection URI")
	cmd.PersistentFlags().String("mongo-database", defaults.GetString("mongo.database"), "MongoDB database name")
	cmd.PersistentFlags().String("notify-base-url", defaults.GetString("notify.base_url"), "Notification service base URL")
	cmd.PersistentFlags().String("images-dir", defaults.GetString("images.dir"), "Product image storage directory")
	cmd.PersistentFlags().String("images-base-url", defaults.GetString("images.base_url"), "Public URL prefix for product images")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-encoding", defaults.GetString("log.encoding"), "Log encoding (json, console)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "store.driver", "store-driver")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "mongo.uri", "mongo-uri")
	bindFlag(cmd, "mongo.database", "mongo-database")
	bindFlag(cmd, "notify.base_url", "notify-base-url")
	bindFlag(cmd, "images.dir", "images-dir")
	bindFlag(cmd, "images.base_url", "images-base-url")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "log.encoding", "log-encoding")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.LogEncoding)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, closeStore, err := openStore(ctx, appConfig, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	blobs, err := gateway.NewFileBlobStore(appConfig.ImageDir, appConfig.ImageBaseURL, logger)
	if err != nil {
		return err
	}

	orderDashboard, err := orders.NewDashboard(orders.DashboardConfig{
		Store:  store,
		Logger: logger,
		Clock:  time.Now,
	})
	if err != nil {
		return err
	}

	catalogDashboard, err := catalog.NewDashboard(catalog.DashboardConfig{
		Store:  store,
		Blobs:  blobs,
		Logger: logger,
		Clock:  time.Now,
	})
	if err != nil {
		return err
	}

	notifyClient, err := notify.NewClient(notify.ClientConfig{
		BaseURL: appConfig.NotifyBaseURL,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	panel, err := notify.NewPanel(notify.PanelConfig{
		Client: notifyClient,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Orders:       orderDashboard,
		Catalog:      catalogDashboard,
		Panel:        panel,
		NotifyClient: notifyClient,
		ImageDir:     appConfig.ImageDir,
		ImageBaseURL: appConfig.ImageBaseURL,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	if err := orderDashboard.Refresh(ctx); err != nil {
		logger.Warn("initial order load failed", zap.Error(err))
	}
	if err := catalogDashboard.Refresh(ctx); err != nil {
		logger.Warn("initial product load failed", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func openStore(ctx context.Context, appConfig config.AppConfig, logger *zap.Logger) (gateway.Store, func(), error) {
	switch strings.ToLower(strings.TrimSpace(appConfig.StoreDriver)) {
	case "mongo":
		mongoStore, err := gateway.OpenMongo(ctx, appConfig.MongoURI, appConfig.MongoDatabase, logger)
		if err != nil {
			return nil, nil, err
		}
		return mongoStore, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoStore.Close(closeCtx); err != nil {
				logger.Warn("mongo close failed", zap.Error(err))
			}
		}, nil
	default:
		sqliteStore, err := gateway.OpenSQLite(appConfig.DatabasePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return sqliteStore, func() {
			if err := sqliteStore.Close(); err != nil {
				logger.Warn("sqlite close failed", zap.Error(err))
			}
		}, nil
	}
}
