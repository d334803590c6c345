package bootstrap

import (
	"property-portal/internal/config"
	"property-portal/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless deployments (the api handler imports
// this package, not internal). The showcase loads once per cold start and is
// not scheduled.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	app, _, err := router.CreateApp(cfg)
	return app, err
}
