package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPropertiesAPIBaseURL is the mock listings service the site was built against.
const DefaultPropertiesAPIBaseURL = "https://68b826bcb715405043274639.mockapi.io/api/properties"

// Config holds application configuration (env + Viper).
type Config struct {
	Env      string
	Port     string
	LogLevel string

	PropertiesAPIBaseURL string
	PropertiesAPITimeout time.Duration // zero: no client-side timeout
	SearchDebounce       time.Duration
	FeaturedLimit        int    // listings kept warm for the home page
	ShowcaseRefreshSpec  string // robfig/cron spec, e.g. "@every 10m"

	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string

	FirebaseAPIKey  string // empty: local accounts provider
	FirebaseAuthURL string // Identity Toolkit base, overridable for the emulator

	BrevoAPIKey string // empty: account emails are not sent
	MailFrom    string
	SiteURL     string

	SupabaseURL       string // empty: image uploads disabled
	SupabaseSecretKey string
	ImageBucket       string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEARCH_DEBOUNCE", "300ms")
	v.SetDefault("FEATURED_LIMIT", 2)
	v.SetDefault("SHOWCASE_REFRESH_SPEC", "@every 10m")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("DATABASE_URL", "sqlite:portal.db")
	v.SetDefault("IMAGE_BUCKET", "property-images")
	v.SetDefault("SITE_URL", "http://localhost:5173")
	v.SetDefault("FIREBASE_AUTH_URL", "https://identitytoolkit.googleapis.com/v1")

	env := v.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	return &Config{
		Env:                  env,
		Port:                 v.GetString("PORT"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		PropertiesAPIBaseURL: propertiesBaseURL(v.GetString("PROPERTIES_API_BASE_URL"), v.GetString("VITE_API_BASE_URL")),
		PropertiesAPITimeout: v.GetDuration("PROPERTIES_API_TIMEOUT"),
		SearchDebounce:       v.GetDuration("SEARCH_DEBOUNCE"),
		FeaturedLimit:        v.GetInt("FEATURED_LIMIT"),
		ShowcaseRefreshSpec:  v.GetString("SHOWCASE_REFRESH_SPEC"),
		SessionSecret:        v.GetString("SESSION_SECRET"),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		RedisURL:             v.GetString("REDIS_URL"),
		FrontendURLEndsWith:  v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:          v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:    strings.EqualFold(v.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:       v.GetString("HEALTH_ADMIN_KEY"),
		FirebaseAPIKey:       v.GetString("FIREBASE_API_KEY"),
		FirebaseAuthURL:      strings.TrimRight(v.GetString("FIREBASE_AUTH_URL"), "/"),
		BrevoAPIKey:          v.GetString("BREVO_API_KEY"),
		MailFrom:             v.GetString("MAIL_FROM"),
		SiteURL:              v.GetString("SITE_URL"),
		SupabaseURL:          strings.TrimRight(v.GetString("SUPABASE_URL"), "/"),
		SupabaseSecretKey:    v.GetString("SUPABASE_SECRET_KEY"),
		ImageBucket:          v.GetString("IMAGE_BUCKET"),
	}, nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// propertiesBaseURL prefers the server-side name and falls back to the
// front end's VITE_ variable so one .env serves both.
func propertiesBaseURL(primary, vite string) string {
	for _, s := range []string{primary, vite} {
		if s = strings.TrimSpace(s); s != "" {
			return strings.TrimRight(s, "/")
		}
	}
	return DefaultPropertiesAPIBaseURL
}
