package router

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "pet-adoption-api/docs"
	"pet-adoption-api/internal/adapters/auth/jwtauth"
	"pet-adoption-api/internal/adapters/cache/rediscache"
	"pet-adoption-api/internal/adapters/notify/logmail"
	"pet-adoption-api/internal/adapters/payments/sandbox"
	mem "pet-adoption-api/internal/adapters/storage/memory"
	pg "pet-adoption-api/internal/adapters/storage/postgres"
	"pet-adoption-api/internal/domain/applications"
	"pet-adoption-api/internal/domain/auditlog"
	"pet-adoption-api/internal/domain/coupons"
	"pet-adoption-api/internal/domain/pets"
	"pet-adoption-api/internal/domain/promotions"
	"pet-adoption-api/internal/domain/recommend"
	"pet-adoption-api/internal/domain/rescues"
	"pet-adoption-api/internal/domain/transactions"
	"pet-adoption-api/internal/domain/users"
	"pet-adoption-api/internal/middleware"
	"pet-adoption-api/internal/platform/config"
	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/platform/web"
	"pet-adoption-api/internal/ports/auth"
	"pet-adoption-api/internal/ports/notify"
	"pet-adoption-api/internal/ports/payments"
)

type Options struct {
	Config *config.Config // nil => config.Default()
	Logger logger.Logger

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB
	// Opcional: cache del pool de recomendaciones.
	Redis *redis.Client

	// Tokens y Verifier normalmente son el mismo *jwtauth.Manager.
	// Si faltan se crea uno con un secreto efímero (dev/tests).
	Tokens   auth.TokenIssuer
	Verifier auth.AuthVerifier

	Mailer  notify.Mailer    // nil => log mailer
	Gateway payments.Gateway // nil => sandbox
}

type repos struct {
	pets         pets.Repository
	users        users.Repository
	rescues      rescues.Repository
	requests     rescues.RequestRepository
	applications applications.Repository
	coupons      coupons.Repository
	transactions transactions.Repository
	audit        auditlog.Repository
}

func NewRouter(opts Options) http.Handler {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	tokens, verifier := opts.Tokens, opts.Verifier
	if tokens == nil || verifier == nil {
		m := ephemeralTokens(cfg, log)
		if tokens == nil {
			tokens = m
		}
		if verifier == nil {
			verifier = m
		}
	}
	mailer := opts.Mailer
	if mailer == nil {
		mailer = logmail.New(log)
	}
	gateway := opts.Gateway
	if gateway == nil {
		gateway = sandbox.New()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestInfo)
	r.Use(middleware.Recover(log))
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.AuthContext(verifier, cfg.HTTP.DevAuth))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		web.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var rp repos
	if opts.DB != nil {
		rp = repos{
			pets:         pg.NewPetsRepo(opts.DB),
			users:        pg.NewUsersRepo(opts.DB),
			rescues:      pg.NewRescuesRepo(opts.DB),
			requests:     pg.NewRescueRequestsRepo(opts.DB),
			applications: pg.NewApplicationsRepo(opts.DB),
			coupons:      pg.NewCouponsRepo(opts.DB),
			transactions: pg.NewTransactionsRepo(opts.DB),
			audit:        pg.NewAuditRepo(opts.DB),
		}
	} else {
		log.Warn("no database configured, using in-memory repositories", nil)
		rp = repos{
			pets:         mem.NewPetRepo(),
			users:        mem.NewUserRepo(),
			rescues:      mem.NewRescueRepo(),
			requests:     mem.NewRescueRequestRepo(),
			applications: mem.NewApplicationRepo(),
			coupons:      mem.NewCouponRepo(),
			transactions: mem.NewTransactionRepo(),
			audit:        mem.NewAuditRepo(),
		}
	}

	var poolCache recommend.PoolCache
	if opts.Redis != nil {
		poolCache = rediscache.NewPoolCache(opts.Redis, cfg.Redis.PoolTTL)
	}

	// Services por módulo
	var recommendSvc *recommend.Service
	auditSvc := auditlog.NewService(rp.audit, log)
	petsSvc := pets.NewService(rp.pets,
		pets.WithPageSize(cfg.Pets.PageSize, cfg.Pets.MaxPageSize),
		pets.WithChangeHook(func(ctx context.Context) { recommendSvc.InvalidatePool(ctx) }),
	)
	recommendSvc = recommend.NewService(petsSvc, poolCache, log)

	usersSvc := users.NewService(rp.users, tokens, mailer, users.Config{
		ResetTTL: cfg.Auth.ResetTTL,
		ResetURL: cfg.Mail.ResetURL,
	}, log)
	rescuesSvc := rescues.NewService(rp.rescues, rp.requests, usersSvc)
	applicationsSvc := applications.NewService(rp.applications, petsSvc, log)
	couponsSvc := coupons.NewService(rp.coupons)
	transactionsSvc := transactions.NewService(rp.transactions)
	promotionsSvc := promotions.NewService(petsSvc, couponsSvc, transactionsSvc, gateway, promotions.Config{
		BaseFeeCents: cfg.Promotions.BaseFeeCents,
		Currency:     cfg.Promotions.Currency,
		Duration:     cfg.Promotions.Duration,
	}, log)

	// Rutas por módulo
	r.Route("/api/v1", func(api chi.Router) {
		pets.RegisterRoutes(api, petsSvc, auditSvc)
		recommend.RegisterRoutes(api, recommendSvc)
		applications.RegisterRoutes(api, applicationsSvc, auditSvc)
		rescues.RegisterRoutes(api, rescuesSvc, auditSvc)
		promotions.RegisterRoutes(api, promotionsSvc, auditSvc)
		users.RegisterRoutes(api, usersSvc, auditSvc)
		transactions.RegisterRoutes(api, transactionsSvc)

		api.Route("/admin", func(ar chi.Router) {
			ar.Use(middleware.RequireRole(auth.RoleAdmin))
			users.RegisterAdminRoutes(ar, usersSvc, auditSvc)
			rescues.RegisterAdminRoutes(ar, rescuesSvc, auditSvc)
			coupons.RegisterAdminRoutes(ar, couponsSvc, auditSvc)
			transactions.RegisterAdminRoutes(ar, transactionsSvc)
			auditlog.RegisterAdminRoutes(ar, auditSvc)
		})
	})

	return r
}

// ephemeralTokens usa el secreto configurado o, si no hay, uno aleatorio
// (los tokens dejan de valer al reiniciar).
func ephemeralTokens(cfg *config.Config, log logger.Logger) *jwtauth.Manager {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		buf := make([]byte, 32)
		_, _ = rand.Read(buf)
		secret = hex.EncodeToString(buf)
		log.Warn("auth.jwt_secret not set, using an ephemeral secret", nil)
	}
	m, err := jwtauth.New(jwtauth.Config{Secret: secret, Issuer: cfg.Auth.Issuer, TTL: cfg.Auth.TokenTTL})
	if err != nil {
		// solo falla con secreto vacío
		panic(err)
	}
	return m
}
