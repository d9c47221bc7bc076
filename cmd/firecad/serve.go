package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/firecad/internal/api"
	"github.com/nerrad567/firecad/internal/archive"
	"github.com/nerrad567/firecad/internal/infrastructure/config"
	"github.com/nerrad567/firecad/internal/infrastructure/database"
	"github.com/nerrad567/firecad/internal/infrastructure/influxdb"
	"github.com/nerrad567/firecad/internal/infrastructure/logging"
	"github.com/nerrad567/firecad/internal/infrastructure/mqtt"
	"github.com/nerrad567/firecad/internal/metrics"
	"github.com/nerrad567/firecad/internal/pipeline"
	"github.com/nerrad567/firecad/internal/publish"
	"github.com/nerrad567/firecad/migrations"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.Default()
			log.Info("starting FireCAD",
				"version", version,
				"commit", commit,
				"build_date", date,
			)

			cfg, err := root.loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			log.Info("configuration loaded", "path", root.configPath)

			return run(cmd.Context(), cfg, logging.New(cfg.Logging, version))
		},
	}
}

// run wires every component, serves until ctx is cancelled, then shuts
// down in reverse order.
func run(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	reg := metrics.NewRegistry()
	analyzer := newAnalyzer(cfg)
	analyzer.SetLogger(log.Component("analyzer"))
	analyzer.SetObserver(reg)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
		Migrations:  migrations.FS,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	checks := map[string]api.HealthChecker{"database": db}

	var repo archive.Repository
	if cfg.Analysis.ArchiveResults {
		repo = archive.NewSQLiteRepository(db.DB)
	} else {
		log.Info("analysis archive disabled")
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(ctx, cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		checks["mqtt"] = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	pipeDeps := pipeline.Deps{
		Analyzer: analyzer,
		Archive:  repo,
		Timeout:  cfg.AnalysisTimeout(),
	}
	if publisher := newPublisher(cfg, mqttClient, influxClient, reg, log); publisher != nil {
		pipeDeps.Publisher = publisher
	}
	pipe, err := pipeline.New(pipeDeps)
	if err != nil {
		return err
	}

	// Analysis requests over MQTT
	if mqttClient != nil && cfg.Analysis.InboxDir != "" {
		requests := publish.NewRequests(cfg.Analysis.InboxDir, pipe.AnalyzeFile, log.Component("requests"))
		if listenErr := requests.Listen(ctx, mqttClient); listenErr != nil {
			return listenErr
		}
		defer requests.Close()
		log.Info("listening for analysis requests",
			"topic", mqtt.Topics{}.AnalyzeRequest(),
			"inbox", cfg.Analysis.InboxDir,
		)
	}

	// Start API server
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Formats:  analyzer,
		Pipeline: pipe,
		Archive:  repo,
		Metrics:  reg,
		Checks:   checks,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("FireCAD started successfully", "site_id", cfg.Site.ID)

	<-ctx.Done()
	log.Info("shutdown signal received, stopping services")
	return nil
}

// newPublisher returns nil when publishing is off or no sink is connected.
func newPublisher(cfg *config.Config, mqttClient *mqtt.Client, influxClient *influxdb.Client,
	reg *metrics.Registry, log *logging.Logger) *publish.Publisher {
	if !cfg.Analysis.PublishResults {
		return nil
	}

	deps := publish.Deps{
		SiteID:   cfg.Site.ID,
		Failures: reg,
		Logger:   log.Component("publish"),
	}
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}
	if influxClient != nil {
		deps.InfluxDB = influxClient
	}

	publisher := publish.New(deps)
	if !publisher.Enabled() {
		return nil
	}
	if influxClient != nil {
		influxClient.SetOnError(publisher.InfluxWriteFailed)
	}
	return publisher
}
