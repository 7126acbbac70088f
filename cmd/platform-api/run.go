package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apiserver "github.com/synthetica/platform/internal/api_server"
	"github.com/synthetica/platform/internal/config"
	"github.com/synthetica/platform/internal/events"
	"github.com/synthetica/platform/internal/gcp"
	"github.com/synthetica/platform/internal/pipeline"
	"github.com/synthetica/platform/internal/service"
	"github.com/synthetica/platform/internal/storage"
	"github.com/synthetica/platform/internal/store"
	"github.com/synthetica/platform/pkg/log"
	"github.com/synthetica/platform/pkg/migrations"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the platform api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			zap.S().Fatalw("reading configuration", "error", err)
		}

		logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if cfg.Service.MigrationFolder != "" {
			if err := migrations.MigrateStore(db, cfg.Service.MigrationFolder); err != nil {
				zap.S().Fatalw("running migrations", "error", err)
			}
		} else if err := s.InitialMigration(); err != nil {
			zap.S().Fatalw("running initial migration", "error", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		eventWriter, err := newEventWriter(cfg)
		if err != nil {
			zap.S().Fatalw("creating event writer", "error", err)
		}
		producerOpts := []events.ProducerOptions{}
		if cfg.Service.Kafka.Topic != "" {
			producerOpts = append(producerOpts, events.WithOutputTopic(cfg.Service.Kafka.Topic))
		}
		eventProducer := events.NewEventProducer(eventWriter, producerOpts...)
		defer eventProducer.Close()

		objectStore, err := storage.NewMinioStoreFromConfig(cfg)
		if err != nil {
			zap.S().Fatalw("creating object store", "error", err)
		}

		var iam gcp.IAMClient
		if cfg.Service.GCP.ProjectID != "" {
			iam, err = gcp.NewIAMClient(ctx, cfg)
			if err != nil {
				zap.S().Fatalw("creating iam client", "error", err)
			}
		}

		pipelineClient := pipeline.NewClient(cfg)

		pollInterval, err := time.ParseDuration(cfg.Service.Pipeline.PollInterval)
		if err != nil {
			pollInterval = 10 * time.Second
		}
		jobService := service.NewJobService(s, pipelineClient, eventProducer)
		poller := pipeline.NewPoller(pipelineClient, s, jobService, pollInterval)

		group, groupCtx := errgroup.WithContext(ctx)

		group.Go(func() error {
			poller.Run(groupCtx)
			return nil
		})

		group.Go(func() error {
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				return err
			}
			server := apiserver.New(cfg, s, listener, eventProducer, objectStore, iam, pipelineClient)
			return server.Run(groupCtx)
		})

		group.Go(func() error {
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				return err
			}
			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener, s)
			return metricsServer.Run(groupCtx)
		})

		if err := group.Wait(); err != nil {
			zap.S().Fatalw("server stopped", "error", err)
		}

		return nil
	},
}

func newEventWriter(cfg *config.Config) (events.Writer, error) {
	if len(cfg.Service.Kafka.Brokers) == 0 {
		zap.S().Info("no kafka brokers configured, events are written to stdout")
		return &events.StdoutWriter{}, nil
	}

	saramaCfg := cfg.Service.Kafka.SaramaConfig
	if saramaCfg == nil {
		saramaCfg = sarama.NewConfig()
		saramaCfg.Version = cfg.Service.Kafka.Version
		if cfg.Service.Kafka.ClientID != "" {
			saramaCfg.ClientID = cfg.Service.Kafka.ClientID
		}
	}

	return events.NewKafkaWriter(cfg.Service.Kafka.Brokers, saramaCfg)
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
