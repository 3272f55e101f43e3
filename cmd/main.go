package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/Vovarama1992/whatsapp-autoreply/internal/ai"
	"github.com/Vovarama1992/whatsapp-autoreply/internal/autoreply"
	"github.com/Vovarama1992/whatsapp-autoreply/internal/config"
	"github.com/Vovarama1992/whatsapp-autoreply/internal/logger"
	"github.com/Vovarama1992/whatsapp-autoreply/internal/whatsapp"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "autoreply",
		Short:         "WhatsApp auto-responder with human-paced AI replies",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				log.Error("config error", "err", err)
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().String("log-level", "", "debug|info|warn|error")
	cmd.PersistentFlags().String("log-format", "", "text|json")
	cmd.Flags().String("http-addr", "", "status server address, empty string disables it")
	_ = v.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("logging.format", cmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("http.addr", cmd.Flags().Lookup("http-addr"))

	cmd.AddCommand(newConfigCmd(v, &cfgFile))
	return cmd
}

func newConfigCmd(v *viper.Viper, cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration with secrets masked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, *cfgFile)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg.Masked())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func run(parent context.Context, cfg config.Config) error {
	logr, err := logger.New(cfg.Logging)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- AI ---
	var aiClient ai.AI
	switch cfg.AI.Provider {
	case "ollama":
		aiClient = ai.NewOllamaClient(cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.Timeout, logr)
	default:
		aiClient = ai.NewOpenAIClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, logr)
	}

	// --- Policies ---
	limits, err := autoreply.WordLimitsByName(cfg.Style.WordLimits)
	if err != nil {
		return err
	}
	seen, err := autoreply.SeenPolicyByName(cfg.Delays.SeenPolicy, nil)
	if err != nil {
		return err
	}
	typing, err := autoreply.TypingPolicyByName(cfg.Delays.TypingPolicy)
	if err != nil {
		return err
	}

	// --- WhatsApp ---
	lifecycle := autoreply.NewLifecycle(logr)
	wa, err := whatsapp.New(ctx, cfg.WhatsApp, lifecycle, logr)
	if err != nil {
		return err
	}

	// --- Auto-reply wiring ---
	state := autoreply.NewRuntimeState(cfg.AutoReply, cfg.Admins)
	pipeline := autoreply.NewPipeline(
		wa,
		autoreply.NewReplier(aiClient, limits, cfg.AI.Timeout, logr),
		autoreply.NewMemoryHistory(cfg.History.Limit),
		autoreply.PipelineConfig{
			Capacity: cfg.Queue.Capacity,
			Limits:   limits,
			Seen:     seen,
			Typing:   typing,
		},
		logr,
	)
	bot := autoreply.NewBot(wa, state, pipeline, lifecycle, logr)
	wa.SetHandler(bot)

	logr.Info("starting",
		"provider", cfg.AI.Provider, "admins", len(cfg.Admins), "auto_reply", cfg.AutoReply)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pipeline.Run(ctx) })
	g.Go(func() error { return wa.Run(ctx) })
	g.Go(func() error {
		return lifecycle.Watch(ctx, autoreply.WatchdogConfig{
			Timeout:    cfg.WhatsApp.ReadyTimeout,
			MaxRetries: cfg.WhatsApp.ReadyRetries,
			Recover:    wa.Reconnect,
		})
	})
	if cfg.HTTP.Addr != "" {
		g.Go(func() error { return serveStatus(ctx, cfg.HTTP.Addr, bot, logr) })
	}

	if err := g.Wait(); err != nil {
		logr.Error("stopped with error", "err", err)
		return err
	}
	logr.Info("bye")
	return nil
}

func serveStatus(ctx context.Context, addr string, bot *autoreply.Bot, logr *log.Logger) error {
	// --- Router ---
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	autoreply.RegisterRoutes(r, autoreply.NewHandler(bot))

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logr.WithPrefix("http").Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status server: %w", err)
	}
	return nil
}
