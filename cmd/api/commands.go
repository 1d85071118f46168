package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chachabrian/courier-backend/internal/config"
	"github.com/chachabrian/courier-backend/internal/database"
	"github.com/chachabrian/courier-backend/internal/handlers"
	"github.com/chachabrian/courier-backend/internal/services"
)

// NewRootCommand creates the courier-api CLI. With no subcommand it serves HTTP.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "courier-api",
		Short:        "Courier parcel booking API",
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewPromoteCommand())

	return cmd
}

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer st.close()

	sessions, closeSessions, err := openSessionStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer closeSessions()

	mailer, err := services.NewMailer(cfg.Mail)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}

	if cfg.Stripe.SecretKey == "" {
		log.Printf("Warning: STRIPE_SECRET_KEY not set, payments will fail")
	}
	gateway := services.NewStripeGateway(cfg.Stripe.SecretKey)

	// Initialize WebSocket hub
	hub := services.NewTrackingHub()
	hubStop := make(chan struct{})
	go hub.Run(hubStop)
	defer close(hubStop)

	auth := services.NewAuthService(st.users, sessions, cfg.JWTSecret, cfg.JWTTTL)
	booking := services.NewBookingService(st.parcels, st.users, sessions, gateway, services.NewNotifier(mailer, hub), cfg.Stripe.Currency)

	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:            auth,
		Booking:         booking,
		Users:           st.users,
		Hub:             hub,
		StripePublicKey: cfg.Stripe.PublicKey,
		CORSOrigins:     cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on :%s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the relational schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Database.Driver == config.DriverMongo {
				log.Printf("DB_DRIVER=mongo: indexes are created on connect, nothing to migrate")
				return nil
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := database.RunMigrations(db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations complete")
			return nil
		},
	}
}

func NewPromoteCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant the admin role to a registered user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			st, err := openStores(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer st.close()

			auth := services.NewAuthService(st.users, nil, cfg.JWTSecret, cfg.JWTTTL)
			if err := auth.PromoteToAdmin(cmd.Context(), email); err != nil {
				if errors.Is(err, services.ErrNotFound) {
					return fmt.Errorf("no user registered with email %s", email)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email of the user to promote")
	cmd.MarkFlagRequired("email")

	return cmd
}
