// Command rolegate runs the entitlement gate: it listens for Stripe
// webhook events, reconciles a Discord guild role against subscription
// state, and serves the /subscribe and /cancel slash commands.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dbfutures/rolegate/pkg/billing/stripe"
	"github.com/dbfutures/rolegate/pkg/config"
	"github.com/dbfutures/rolegate/pkg/discord"
	"github.com/dbfutures/rolegate/pkg/entitlement"
	zlog "github.com/dbfutures/rolegate/pkg/entitlement/logger/zerolog"
	prommetrics "github.com/dbfutures/rolegate/pkg/entitlement/metrics/prometheus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	root := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		root.Fatal().Err(err).Msg("configuration invalid")
	}

	logger := zlog.NewLogger(root)
	metrics := prommetrics.NewMetrics(prometheus.DefaultRegisterer, "rolegate")

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		root.Fatal().Err(err).Msg("discord session init failed")
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	roles := discord.NewRoles(session, logger)
	reconciler, err := entitlement.NewReconciler(entitlement.Config{
		Roles:   roles,
		GuildID: cfg.GuildID,
		RoleID:  cfg.RoleID,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		root.Fatal().Err(err).Msg("reconciler init failed")
	}

	gateway, err := stripe.NewGateway(stripe.Config{
		APIKey:         cfg.StripeSecretKey,
		WebhookSecret:  cfg.StripeWebhookSecret,
		PaymentLinkURL: cfg.PaymentLinkURL,
		Reconciler:     reconciler,
		Logger:         logger,
		Metrics:        metrics,
	})
	if err != nil {
		root.Fatal().Err(err).Msg("stripe gateway init failed")
	}

	commands, err := discord.NewCommands(gateway, logger, metrics)
	if err != nil {
		root.Fatal().Err(err).Msg("command handler init failed")
	}
	session.AddHandler(commands.Handle)

	// Open the gateway connection before accepting webhook traffic so the
	// first event never races Discord availability.
	if err := session.Open(); err != nil {
		root.Fatal().Err(err).Msg("discord gateway open failed")
	}
	defer session.Close()

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Method(http.MethodPost, "/webhook", gateway.WebhookHandler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		root.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		root.Fatal().Err(err).Msg("server exited")
	}
	root.Info().Msg("shut down cleanly")
}
