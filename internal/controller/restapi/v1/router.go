package v1

import (
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewPanelRoutes(
	apiV1Group fiber.Router,
	gallery usecase.Gallery,
	resize usecase.Resize,
	history usecase.History,
	status usecase.Status,
	l logger.Interface,
) {
	r := &V1{gallery: gallery, resize: resize, history: history, status: status, logger: l}

	{
		// API
		apiV1Group.Get("/health", r.health)
		apiV1Group.Get("/backend/status", r.backendStatus)
		apiV1Group.Post("/backend/status", r.checkBackend)

		apiV1Group.Get("/images", r.listImages)
		apiV1Group.Post("/upload", r.uploadImage)
		apiV1Group.Delete("/images/:filename", r.deleteImage)
		apiV1Group.Get("/images/:filename/url", r.imageURL)
		apiV1Group.Get("/images/:filename/view", r.viewURL)
		apiV1Group.Get("/images/:filename/download", r.downloadImage)
		apiV1Group.Post("/images/:filename/resize", r.startResize)

		apiV1Group.Get("/workflows", r.listWorkflows)
		apiV1Group.Get("/workflows/:id", r.getWorkflow)
		apiV1Group.Delete("/workflows/:id", r.dismissWorkflow)

		// UI
		apiV1Group.Get("/", r.showUI)
	}
}
