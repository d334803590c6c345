package router

import (
	"context"
	"strings"

	authsvc "property-portal/internal/application/auth"
	"property-portal/internal/application/emails"
	healthsvc "property-portal/internal/application/health"
	propsvc "property-portal/internal/application/properties"
	"property-portal/internal/application/showcase"
	uploadsvc "property-portal/internal/application/uploads"
	"property-portal/internal/config"
	"property-portal/internal/infrastructure/database"
	authhandler "property-portal/internal/interfaces/handlers/auth"
	healthhandler "property-portal/internal/interfaces/handlers/health"
	prophandler "property-portal/internal/interfaces/handlers/properties"
	uploadhandler "property-portal/internal/interfaces/handlers/uploads"
	"property-portal/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Resources are the long-lived dependencies CreateApp opened.
type Resources struct {
	DB       *gorm.DB
	Rdb      *redis.Client
	Showcase *showcase.Service
}

// Close stops the showcase and releases connections.
func (r *Resources) Close() {
	if r.Showcase != nil {
		r.Showcase.Stop()
	}
	if r.Rdb != nil {
		_ = r.Rdb.Close()
	}
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// CreateApp builds the Fiber app and every service behind it.
func CreateApp(cfg *config.Config) (*fiber.App, *Resources, error) {
	return CreateAppWithAPI(cfg, nil)
}

// CreateAppWithAPI is CreateApp with an injected listings API; a nil api
// builds the HTTP client from cfg.
func CreateAppWithAPI(cfg *config.Config, api propsvc.API) (*fiber.App, *Resources, error) {
	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, err
	}
	res := &Resources{Rdb: rdb}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		res.Close()
		return nil, nil, err
	}
	res.DB = db
	if err := database.AutoMigrate(db); err != nil {
		res.Close()
		return nil, nil, err
	}

	if api == nil {
		api = propsvc.NewHTTPClient(cfg.PropertiesAPIBaseURL, cfg.PropertiesAPITimeout)
	}
	res.Showcase = showcase.NewService(context.Background(), api, cfg.FeaturedLimit, cfg.ShowcaseRefreshSpec)

	var mailer emails.Sender
	if cfg.BrevoAPIKey != "" {
		mailer = &emails.BrevoClient{APIKey: cfg.BrevoAPIKey, MailFrom: cfg.MailFrom, SiteURL: cfg.SiteURL}
	}

	var provider authsvc.Provider
	if cfg.FirebaseAPIKey != "" {
		provider = authsvc.NewIdentityToolkit(cfg.FirebaseAuthURL, cfg.FirebaseAPIKey)
		log.Info().Msg("Auth: using Firebase Identity Toolkit")
	} else {
		provider = &authsvc.LocalProvider{DB: db, Rdb: rdb, Mailer: mailer}
		log.Warn().Msg("Auth: FIREBASE_API_KEY not set, using local accounts")
	}
	authService := &authsvc.Service{Provider: provider, DB: db, Mailer: mailer}

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.NewErrorHandler(rdb),
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             &database.Pinger{DB: db},
		Probes:         []healthsvc.Probe{listingsCheck(cfg.PropertiesAPIBaseURL)},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	ah := &authhandler.Handlers{Service: authService, Rdb: rdb, Config: sessionCfg}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/signup", ah.Signup)
	authGroup.Post("/login", ah.Login)
	authGroup.Post("/reset-password", ah.ResetPassword)
	authGroup.Post("/reset-password/confirm", ah.ConfirmResetPassword)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	ph := &prophandler.Handlers{API: api, Showcase: res.Showcase}
	uh := &uploadhandler.Handlers{}
	if cfg.SupabaseURL != "" {
		uh.Service = &uploadsvc.Service{
			Client:      &uploadsvc.SupabaseClient{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey},
			SupabaseURL: cfg.SupabaseURL,
			Bucket:      cfg.ImageBucket,
		}
	}
	pg := app.Group("/api/v1/properties")
	pg.Get("/", ph.GetAll)
	pg.Get("/featured", ph.GetFeatured)
	pg.Get("/search", ph.Search)
	pg.Get("/city/:city", ph.GetByCity)
	pg.Get("/state/:state", ph.GetByState)
	pg.Get("/:id/nearby", ph.GetNearby)
	pg.Get("/:id", ph.GetByID)
	pg.Post("/image-upload", middleware.RequireAuth(), uh.PropertyImage)
	pg.Post("/", middleware.RequireAuth(), ph.Create)
	pg.Put("/:id", middleware.RequireAuth(), ph.Update)
	pg.Delete("/:id", middleware.RequireAuth(), ph.Delete)

	return app, res, nil
}

// listingsCheck targets the smallest list request on the listings API.
func listingsCheck(baseURL string) healthsvc.Probe {
	return healthsvc.Probe{Name: "listings", URL: strings.TrimRight(baseURL, "/") + "/PropertyListing?limit=1"}
}
