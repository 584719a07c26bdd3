package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"github.com/spf13/cobra"

	"github.com/hupe1980/supportmesh/config"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/oracle"
	anthropicoracle "github.com/hupe1980/supportmesh/oracle/anthropic"
	openaioracle "github.com/hupe1980/supportmesh/oracle/openai"
	"github.com/hupe1980/supportmesh/server"
	"github.com/hupe1980/supportmesh/session"
	redissession "github.com/hupe1980/supportmesh/session/redis"
	"github.com/hupe1980/supportmesh/support"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assistant HTTP server",
	Long:  `Starts the supervisor and its specialist teams behind the chat API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		logger := logging.New(func(o *logging.Options) {
			o.Level = logging.ParseLevel(cfg.Logging.Level)
			o.Format = cfg.Logging.Format
		})

		o, err := buildOracle(cfg)
		if err != nil {
			return err
		}
		store := buildStore(cfg)

		sup, err := support.NewAssistant(cfg, o, store, logger)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr: cfg.Server.Addr,
			Handler: server.NewHandler(sup, func(so *server.Options) {
				so.Logger = logger
			}),
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("server.listening", "addr", cfg.Server.Addr, "oracle", o.Info().Provider, "model", o.Info().Name)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			logger.Info("server.shutdown.started")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server.shutdown.forced", "error", err.Error())
				return srv.Close()
			}
			logger.Info("server.shutdown.completed")
			return nil
		}
	},
}

// buildOracle selects the model backend from configuration. The provider SDKs
// fall back to their own environment variables when no API key is configured.
func buildOracle(cfg *config.Config) (oracle.Oracle, error) {
	switch cfg.Oracle.Provider {
	case "openai":
		var clientOpts []openaioption.RequestOption
		if cfg.Oracle.APIKey != "" {
			clientOpts = append(clientOpts, openaioption.WithAPIKey(cfg.Oracle.APIKey))
		}
		client := openai.NewClient(clientOpts...)
		return openaioracle.NewFromClient(&client, func(o *openaioracle.Options) {
			o.Model = cfg.Oracle.Model
			o.Temperature = cfg.Oracle.Temperature
		}), nil
	case "anthropic":
		return anthropicoracle.New(func(o *anthropicoracle.Options) {
			o.Model = anthropic.Model(cfg.Oracle.Model)
			o.Temperature = cfg.Oracle.Temperature
			o.APIKey = cfg.Oracle.APIKey
		}), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Oracle.Provider)
	}
}

// buildStore selects the session backend from configuration.
func buildStore(cfg *config.Config) session.Store {
	if cfg.Session.Backend == "redis" {
		return redissession.New(
			cfg.Session.Redis.Addr,
			cfg.Session.Redis.Password,
			cfg.Session.Redis.DB,
			redissession.WithTTL(cfg.Session.TTL()),
		)
	}
	return session.NewInMemoryStore(func(o *session.InMemoryOptions) {
		o.TTL = cfg.Session.TTL()
	})
}
