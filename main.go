package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"payfast/config"
	"payfast/internal"
	"payfast/services"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "payfast",
		Short:         "PayFast payment gateway integration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "conf", "config.yml", "path to config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the http server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(configPath)
			},
		},
		&cobra.Command{
			Use:   "install",
			Short: "Save default settings and locale resources",
			RunE: func(cmd *cobra.Command, args []string) error {
				return lifecycle(cmd.Context(), configPath, (*internal.Plugin).Install)
			},
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "Delete settings and locale resources",
			RunE: func(cmd *cobra.Command, args []string) error {
				return lifecycle(cmd.Context(), configPath, (*internal.Plugin).Uninstall)
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase returns MongoDB when enabled and an in-memory store otherwise.
// Log records are persisted only to MongoDB.
func openDatabase(conf *config.Config, logger *internal.Logger) (services.Database, internal.LogWriter, error) {
	if !conf.Mongo.Enabled {
		logger.Warn("mongo disabled; using in-memory storage")
		return internal.NewMemoryDatabase(), nil, nil
	}
	mongo, err := internal.NewMongoClient(conf)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo client: %w", err)
	}
	logger.Info("mongo client initialized")
	return mongo, mongo, nil
}

func lifecycle(ctx context.Context, configPath string, step func(*internal.Plugin, context.Context) error) error {
	logger := internal.NewLogger("internal", false, nil)
	defer logger.Sync()

	conf, err := config.GetConfig(configPath)
	if err != nil {
		return err
	}
	database, sink, err := openDatabase(conf, logger)
	if err != nil {
		return err
	}

	plugin := internal.NewPlugin(conf, database)
	plugin.SetLogger(internal.NewLogger("plugin", conf.IsDebug, sink))
	return step(plugin, ctx)
}

func serve(configPath string) error {
	logger := internal.NewLogger("internal", false, nil)
	defer logger.Sync()

	logger.Info("using config file: " + configPath)
	conf, err := config.GetConfig(configPath)
	if err != nil {
		return err
	}

	database, sink, err := openDatabase(conf, logger)
	if err != nil {
		return err
	}

	resolver := internal.NewDNSResolver(conf.Resolver.CacheTTL)
	resolver.SetLogger(internal.NewLogger("resolver", conf.IsDebug, sink))
	if conf.Redis.Enabled {
		cache := internal.NewRedisAddressCache(conf)
		cache.SetLogger(internal.NewLogger("redis", conf.IsDebug, sink))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = cache.Ping(ctx)
		cancel()
		if err != nil {
			logger.Error("redis ping; using in-memory resolver cache", err)
		} else {
			resolver.SetCache(cache)
			defer cache.Close()
			logger.Info("redis resolver cache initialized")
		}
	}

	validator := internal.NewGatewayValidator(conf.Gateway.ProductionUrl, conf.Gateway.SandboxUrl, conf.Gateway.ValidateTimeout)
	validator.SetLogger(internal.NewLogger("validator", conf.IsDebug, sink))

	processing := internal.NewOrderProcessing(database)
	processing.SetLogger(internal.NewLogger("orders", conf.IsDebug, sink))
	if conf.Kafka.Enabled {
		publisher := internal.NewKafkaPublisher(conf, internal.NewLogger("kafka", conf.IsDebug, nil).Zap())
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close", err)
			}
		}()
		processing.SetPublisher(publisher)
		logger.Info("kafka publisher initialized")
	}

	payments := internal.NewPayments(conf)
	payments.SetLogger(internal.NewLogger("payments", conf.IsDebug, sink))
	payments.SetDatabase(database)
	payments.SetValidator(validator)
	payments.SetResolver(resolver)
	payments.SetOrderProcessor(processing)

	plugin := internal.NewPlugin(conf, database)
	plugin.SetLogger(internal.NewLogger("plugin", conf.IsDebug, sink))

	server := internal.NewServer(conf)
	server.SetLogger(internal.NewLogger("server", conf.IsDebug, sink))
	server.SetPaymentsService(payments)
	server.SetPlugin(plugin)

	return server.Start()
}
