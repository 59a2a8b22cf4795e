package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"filedepot/internal/config"
	"filedepot/internal/depot"
	"filedepot/internal/journal"
	"filedepot/internal/server"
	"filedepot/internal/storage"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

// setupLogging installs a charmbracelet handler as the default slog logger.
func setupLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	handler := log.NewWithOptions(os.Stdout, log.Options{
		Level:           lvl,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
		TimeFunction:    log.NowUTC,
		ReportCaller:    lvl == log.DebugLevel,
	})

	slog.SetDefault(slog.New(handler))
	return nil
}

// newEngine builds the storage engine selected by cfg.
func newEngine(cfg config.StorageConfig) (storage.StorageEngine, error) {
	switch cfg.Driver {
	case config.DriverMinio:
		client, err := storage.NewMinioClient(storage.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
			Region:    cfg.Minio.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		return storage.NewMinioFileStorage(client, cfg.Minio.Bucket), nil
	default:
		root, err := filepath.Abs(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve storage root: %w", err)
		}
		return storage.NewLocalFileStorage(root), nil
	}
}

func Run(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("filedepot", pflag.ContinueOnError)
	configFile := flags.StringP("config", "c", "", "path to a YAML config file (default ./filedepot.yaml if present)")
	flags.IntP("port", "p", 0, "HTTP listen port")
	flags.String("root", "", "directory holding the storage areas")
	flags.String("journal", "", "path of the SQLite audit journal")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	v := config.New()
	for key, name := range map[string]string{
		"server.port":  "port",
		"storage.root": "root",
		"journal.path": "journal",
	} {
		// Only flags given explicitly override file and environment settings.
		if f := flags.Lookup(name); f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(v, *configFile)
	if err != nil {
		return err
	}

	if err := setupLogging(cfg.Log.Level); err != nil {
		return err
	}

	engine, err := newEngine(cfg.Storage)
	if err != nil {
		return err
	}

	opts := []depot.ConfigOption{depot.WithStorageEngine(engine)}
	if cfg.Storage.Driver == config.DriverLocal {
		root, err := filepath.Abs(cfg.Storage.Root)
		if err != nil {
			return fmt.Errorf("failed to resolve storage root: %w", err)
		}
		opts = append(opts, depot.WithDataDir(root))
	}
	if cfg.Storage.StagingDir != "" {
		opts = append(opts, depot.WithStagingDir(cfg.Storage.StagingDir))
	}

	var events server.EventLister
	if cfg.Journal.Path != "" {
		j, err := journal.Open(ctx, cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer j.Close()

		opts = append(opts, depot.WithJournal(j))
		events = j
	}

	svc, err := depot.NewService(ctx, depot.NewConfig(opts...))
	if err != nil {
		return fmt.Errorf("failed to initialize storage areas: %w", err)
	}

	srv, err := server.NewServer(server.Config{
		Service:        svc,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		Events:         events,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 20 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	eg.Go(func() error {
		slog.Info("Starting file depot HTTP server", "port", cfg.Server.Port, "driver", cfg.Storage.Driver)
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	slog.Info("File depot started", "areas", len(svc.Areas()))
	return eg.Wait()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, os.Args[1:]); err != nil {
		slog.Error("File depot exited with error", "error", err)
		os.Exit(1)
	}
}
