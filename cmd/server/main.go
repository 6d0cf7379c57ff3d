// Command server runs the clinic-admin control plane: the privileged HTTP
// API that provisions tenant principals and signs chat-attachment URLs.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/mattn/go-sqlite3"

	"clinic-admin/internal/api"
	"clinic-admin/internal/config"
	internaldb "clinic-admin/internal/db"
	"clinic-admin/internal/db/repository"
	"clinic-admin/internal/identity"
	"clinic-admin/internal/middleware"
	"clinic-admin/internal/service/provision"
	"clinic-admin/internal/service/security"
	"clinic-admin/internal/service/storage"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, 0)
	if err != nil {
		return err
	}
	defer writeDB.Close()
	defer readDB.Close()

	if err := internaldb.RunMigrations(writeDB); err != nil {
		return err
	}

	// Repositories: mutations go through the single-writer pool, authority
	// lookups through the read pool. Memberships get one repo per pool since
	// provisioning writes them and the resolver only reads them.
	accountRepo := repository.NewAccountRepo(writeDB)
	membershipRepo := repository.NewMembershipRepo(writeDB)
	membershipReadRepo := repository.NewMembershipRepo(readDB)
	profileRepo := repository.NewProfileRepo(writeDB)
	auditRepo := repository.NewAuditRepo(writeDB)
	superAdminRepo := repository.NewSuperAdminRepo(readDB)
	participantRepo := repository.NewParticipantRepo(readDB)

	// Identity service: admin mutations always go over HTTP; credential
	// exchange is either remote or verified in-process.
	identityClient := identity.NewClient(&cfg.Auth)
	var exchange identity.TokenExchanger = identityClient
	if cfg.Auth.LocalVerification() {
		exchange, err = newLocalExchanger(ctx, &cfg.Auth)
		if err != nil {
			return err
		}
		logger.Info("credential exchange: local verification")
	}

	resolver := security.NewResolver(&cfg.Auth, exchange, membershipReadRepo, superAdminRepo,
		logger.With("component", "resolver"))
	provisionSvc := provision.NewService(identityClient, accountRepo, membershipRepo, profileRepo,
		auditRepo, logger.With("component", "provision"))
	accountSvc := provision.NewAccountService(accountRepo, membershipRepo, auditRepo,
		logger.With("component", "accounts"))

	var attachmentSvc *storage.AttachmentService
	if cfg.Storage.Enabled() {
		presigner, err := storage.NewS3Presigner(&cfg.Storage)
		if err != nil {
			return err
		}
		attachmentSvc = storage.NewAttachmentService(&cfg.Storage, exchange,
			participantRepo, membershipReadRepo, presigner, logger.With("component", "attachments"))
		logger.Info("attachment signing enabled", "bucket", cfg.Storage.AttachmentsBucket)
	}

	handler := api.NewHandler(resolver, provisionSvc, accountSvc, attachmentSvc,
		logger.With("component", "api"))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Client-Info", "Apikey",
			"X-Admin-Internal-Token", "X-Admin-Internal"},
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/healthz", api.Healthz)
	r.Route("/v1", handler.Mount)

	logger.Info("clinic-admin API listening", "addr", cfg.ListenAddr)
	return http.ListenAndServe(cfg.ListenAddr, r)
}

// newLocalExchanger picks the in-process credential verifier: OIDC/JWKS
// when an issuer is configured, HS256 otherwise.
func newLocalExchanger(ctx context.Context, cfg *config.AuthConfig) (identity.TokenExchanger, error) {
	if cfg.IssuerURL != "" || cfg.JWKSURL != "" {
		return identity.NewOIDCVerifier(ctx, cfg)
	}
	return identity.NewHS256Verifier(cfg.JWTSecret)
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
