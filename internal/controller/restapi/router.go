package restapi

import (
	"github.com/andreyxaxa/Image-Admin-Panel/config"
	v1 "github.com/andreyxaxa/Image-Admin-Panel/internal/controller/restapi/v1"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// @title Image admin panel
// @version 1.0.0
// @host localhost:8080
// @BasePath /v1
func NewRouter(
	app *fiber.App,
	cfg *config.Config,
	gallery usecase.Gallery,
	resize usecase.Resize,
	history usecase.History,
	status usecase.Status,
	l logger.Interface,
) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewPanelRoutes(apiV1Group, gallery, resize, history, status, l)
	}
}
