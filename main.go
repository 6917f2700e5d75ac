package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"school-directory/config"
	"school-directory/controllers"
	"school-directory/driver"
	"school-directory/routes"
	"school-directory/storage"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Error loading configuration")
	}
	setupLogging(cfg)

	ctx := context.Background()
	if cfg.DB.Migrate {
		if err := driver.Migrate(cfg); err != nil {
			log.WithError(err).Fatal("Database migration failed")
		}
	}

	gateway, err := driver.Open(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Database connection failed")
	}

	images, err := newImageStore(cfg)
	if err != nil {
		gateway.Close()
		log.WithError(err).Fatal("Image store setup failed")
	}

	schoolController := controllers.SchoolController{
		Schools:          gateway,
		Images:           images,
		MaxImageBytes:    cfg.Image.MaxBytes,
		ImageBasePath:    cfg.Image.BasePath,
		ImagePlaceholder: cfg.Image.Placeholder,
	}

	opts := routes.Options{}
	if cfg.Image.Store == config.ImageStoreLocal {
		opts.StaticDir = cfg.Image.Dir
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           routes.NewRouter(schoolController, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{"port": cfg.AppPort, "image_store": cfg.Image.Store}).Info("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	if err := shutdown(srv, gateway); err != nil {
		log.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
	log.Info("Server stopped")
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Warn("Unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func newImageStore(cfg *config.Config) (storage.ImageStore, error) {
	switch cfg.Image.Store {
	case config.ImageStoreRemote:
		return storage.NewRemoteBlobStore(storage.RemoteConfig{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
			ForcePathStyle:  cfg.S3.ForcePathStyle,
			MaxBytes:        cfg.Image.MaxBytes,
		})
	case config.ImageStoreLocal:
		return storage.NewLocalFileStore(cfg.Image.Dir, cfg.Image.MaxBytes), nil
	}
	return nil, errors.Errorf("unknown image store %q", cfg.Image.Store)
}

func shutdown(srv *http.Server, gateway *driver.Gateway) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var result *multierror.Error
	if err := srv.Shutdown(ctx); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "shutdown server"))
	}
	if err := gateway.Close(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "close database"))
	}
	return result.ErrorOrNil()
}
