package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/zenGate-Global/booking-funnel/contracts"
	formfieldshandler "github.com/zenGate-Global/booking-funnel/domains/formfields/be/handler"
	formfieldsrepo "github.com/zenGate-Global/booking-funnel/domains/formfields/be/repo"
	formfieldsservice "github.com/zenGate-Global/booking-funnel/domains/formfields/be/service"
	galleryhandler "github.com/zenGate-Global/booking-funnel/domains/gallery/be/handler"
	galleryrepo "github.com/zenGate-Global/booking-funnel/domains/gallery/be/repo"
	galleryservice "github.com/zenGate-Global/booking-funnel/domains/gallery/be/service"
	leadshandler "github.com/zenGate-Global/booking-funnel/domains/leads/be/handler"
	leadsrepo "github.com/zenGate-Global/booking-funnel/domains/leads/be/repo"
	leadsservice "github.com/zenGate-Global/booking-funnel/domains/leads/be/service"
	profileshandler "github.com/zenGate-Global/booking-funnel/domains/profiles/be/handler"
	profilesrepo "github.com/zenGate-Global/booking-funnel/domains/profiles/be/repo"
	profilesservice "github.com/zenGate-Global/booking-funnel/domains/profiles/be/service"
	publicpagehandler "github.com/zenGate-Global/booking-funnel/domains/publicpage/be/handler"
	publicpagerepo "github.com/zenGate-Global/booking-funnel/domains/publicpage/be/repo"
	publicpageservice "github.com/zenGate-Global/booking-funnel/domains/publicpage/be/service"
	reviewshandler "github.com/zenGate-Global/booking-funnel/domains/reviews/be/handler"
	reviewsrepo "github.com/zenGate-Global/booking-funnel/domains/reviews/be/repo"
	reviewsservice "github.com/zenGate-Global/booking-funnel/domains/reviews/be/service"
	"github.com/zenGate-Global/booking-funnel/platform/go/cache"
	"github.com/zenGate-Global/booking-funnel/platform/go/gcp"
	platformlogging "github.com/zenGate-Global/booking-funnel/platform/go/logging"
	platformmiddleware "github.com/zenGate-Global/booking-funnel/platform/go/middleware"
	"github.com/zenGate-Global/booking-funnel/platform/go/notify"
	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
	"github.com/zenGate-Global/booking-funnel/platform/go/ratelimit"
	"github.com/zenGate-Global/booking-funnel/platform/go/storage"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	ApplySchema     bool          `env:"APPLY_SCHEMA" envDefault:"false"`

	AuthProvider            string `env:"AUTH_PROVIDER" envDefault:"firebase"` // firebase | jwt | dev
	JWTSecret               string `env:"JWT_SECRET"`
	GoogleCloudProject      string `env:"GOOGLE_CLOUD_PROJECT"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`

	StorageBackend       string `env:"STORAGE_BACKEND" envDefault:"local"` // gcs | s3 | local
	StorageBucket        string `env:"STORAGE_BUCKET" envDefault:"mc-media"`
	StorageLocalDir      string `env:"STORAGE_LOCAL_DIR" envDefault:"./.data/storage"`
	StoragePublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL" envDefault:"/media"`
	S3Region             string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint           string `env:"S3_ENDPOINT"`
	S3AccessKeyID        string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey    string `env:"S3_SECRET_ACCESS_KEY"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	RedisURL      string        `env:"REDIS_URL"`
	PublicPageTTL time.Duration `env:"PUBLIC_PAGE_TTL" envDefault:"5m"`

	ResendAPIKey    string `env:"RESEND_API_KEY"`
	ResendFromEmail string `env:"RESEND_FROM_EMAIL"`
	ResendBaseURL   string `env:"RESEND_BASE_URL"`

	PublicBaseURL  string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:5173"`
	LeadRateLimit  int           `env:"LEAD_RATE_LIMIT" envDefault:"10"`
	LeadRateWindow time.Duration `env:"LEAD_RATE_WINDOW" envDefault:"1m"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	if cfg.ApplySchema {
		if err := persistence.ApplySchema(ctx, pool); err != nil {
			logger.Fatal("apply schema", zap.Error(err))
		}
		logger.Info("database schema applied")
	}

	stores := mustOpenStores(ctx, pool, logger)

	pageStore, closeCache, err := cache.Open(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("init page cache", zap.Error(err))
	}
	defer func() {
		_ = closeCache()
	}()
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set; public pages cached in process memory")
	}
	pages := cache.NewPageInvalidator(pageStore, logger)

	blobs, closeBlobs, err := storage.Open(ctx, storage.Config{
		Backend:       cfg.StorageBackend,
		LocalDir:      cfg.StorageLocalDir,
		PublicBaseURL: cfg.StoragePublicBaseURL,
		S3: storage.S3Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKeyID,
			SecretKey: cfg.S3SecretAccessKey,
		},
		GCSOptions: gcp.ClientOptions(cfg.FirebaseCredentialsFile),
	})
	if err != nil {
		logger.Fatal("init media storage", zap.Error(err), zap.String("backend", cfg.StorageBackend))
	}
	defer func() {
		_ = closeBlobs()
	}()
	if err := blobs.Check(ctx, cfg.StorageBucket); err != nil {
		logger.Warn("media bucket check failed", zap.String("bucket", cfg.StorageBucket), zap.Error(err))
	}

	notifier := notify.New(notify.Config{
		APIKey:  cfg.ResendAPIKey,
		From:    cfg.ResendFromEmail,
		BaseURL: cfg.ResendBaseURL,
	})
	if _, disabled := notifier.(notify.Disabled); disabled {
		logger.Warn("RESEND_API_KEY not set; lead notifications disabled")
	}

	profilesService := profilesservice.New(profilesrepo.NewPostgresRepository(stores.profiles, stores.settings), pages)
	profilesHTTPHandler := profileshandler.New(profilesService, logger)

	fieldsService := formfieldsservice.New(formfieldsrepo.NewPostgresRepository(stores.fields, stores.profiles), pages)
	fieldsHTTPHandler := formfieldshandler.New(fieldsService, logger)

	galleryService := galleryservice.New(
		galleryrepo.NewPostgresRepository(stores.gallery, stores.profiles),
		galleryservice.Media{Blobs: blobs, Bucket: cfg.StorageBucket},
		pages,
	)
	galleryHTTPHandler := galleryhandler.New(galleryService, logger)

	reviewsService := reviewsservice.New(
		reviewsrepo.NewPostgresRepository(stores.reviews, stores.profiles),
		reviewsservice.Media{Blobs: blobs, Bucket: cfg.StorageBucket},
		pages,
	)
	reviewsHTTPHandler := reviewshandler.New(reviewsService, logger)

	leadsService := leadsservice.New(leadsrepo.NewPostgresRepository(stores.leads, stores.fields, stores.profiles), notifier)
	leadsHTTPHandler := leadshandler.New(leadsService, logger, cfg.PublicBaseURL)

	publicService := publicpageservice.New(
		publicpagerepo.NewPostgresRepository(stores.profiles, stores.gallery, stores.reviews, stores.fields),
		pageStore,
		cfg.PublicPageTTL,
	)
	publicHTTPHandler := publicpagehandler.New(publicService, logger)

	spec, err := contracts.Load()
	if err != nil {
		logger.Fatal("load api contract", zap.Error(err))
	}
	contractValidator := platformmiddleware.OpenAPIValidator(spec)
	leadLimiter := ratelimit.NewLimiter(cfg.LeadRateLimit, cfg.LeadRateWindow)

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.CORS(cfg.CORSAllowedOrigins),
	)

	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", readinessHandler(pool, logger))

	registerDocsRoutes(rootRouter, spec, logger)

	if local, ok := blobs.(*storage.LocalStore); ok && strings.HasPrefix(cfg.StoragePublicBaseURL, "/") {
		prefix := strings.TrimSuffix(cfg.StoragePublicBaseURL, "/")
		rootRouter.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(local.Root()))))
	}

	apiRouter := chi.NewRouter()
	apiRouter.Use(buildAuthMiddleware(ctx, cfg, logger))
	apiRouter.Use(platformmiddleware.RequestTrace(stores.roles))

	apiRouter.Group(func(r chi.Router) {
		r.Use(contractValidator)
		profilesHTTPHandler.Routes(r)
		fieldsHTTPHandler.Routes(r)
		galleryHTTPHandler.Routes(r)
		reviewsHTTPHandler.Routes(r)
		leadsHTTPHandler.Routes(r)
	})

	// Multipart bodies are checked by the handlers themselves.
	apiRouter.Group(func(r chi.Router) {
		galleryHTTPHandler.UploadRoutes(r)
		reviewsHTTPHandler.UploadRoutes(r)
	})

	apiRouter.Route("/public", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(contractValidator)
			publicHTTPHandler.Routes(r)
		})
		leadsHTTPHandler.PublicRoutes(r, ratelimit.Middleware(leadLimiter))
	})

	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

type storeSet struct {
	profiles *persistence.ProfileStore
	settings *persistence.SettingsStore
	roles    *persistence.RoleStore
	fields   *persistence.FormFieldStore
	gallery  *persistence.GalleryStore
	reviews  *persistence.ReviewStore
	leads    *persistence.LeadStore
}

func mustOpenStores(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) storeSet {
	var (
		set storeSet
		err error
	)
	if set.profiles, err = persistence.NewProfileStore(ctx, pool); err != nil {
		logger.Fatal("init profile store", zap.Error(err))
	}
	if set.settings, err = persistence.NewSettingsStore(ctx, pool); err != nil {
		logger.Fatal("init settings store", zap.Error(err))
	}
	if set.roles, err = persistence.NewRoleStore(ctx, pool); err != nil {
		logger.Fatal("init role store", zap.Error(err))
	}
	if set.fields, err = persistence.NewFormFieldStore(ctx, pool); err != nil {
		logger.Fatal("init form field store", zap.Error(err))
	}
	if set.gallery, err = persistence.NewGalleryStore(ctx, pool); err != nil {
		logger.Fatal("init gallery store", zap.Error(err))
	}
	if set.reviews, err = persistence.NewReviewStore(ctx, pool); err != nil {
		logger.Fatal("init review store", zap.Error(err))
	}
	if set.leads, err = persistence.NewLeadStore(ctx, pool); err != nil {
		logger.Fatal("init lead store", zap.Error(err))
	}
	return set
}

func readinessHandler(pool *pgxpool.Pool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			platformlogging.FromRequest(r, logger).Warn("readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
