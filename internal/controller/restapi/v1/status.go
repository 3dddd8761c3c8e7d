package v1

import (
	"net/http"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/controller/restapi/v1/response"
	"github.com/gofiber/fiber/v2"
)

// @Summary 	Panel liveness
// @Tags 		status
// @Produce 	json
// @Success 	200 {object} response.Health
// @Router 		/v1/health [get]
func (r *V1) health(ctx *fiber.Ctx) error {
	return ctx.Status(http.StatusOK).JSON(response.Health{Status: "ok"})
}

// @Summary 	Backend status
// @Description Last result of the periodic backend health probe
// @Tags 		status
// @Produce 	json
// @Success 	200 {object} entity.BackendHealth
// @Router 		/v1/backend/status [get]
func (r *V1) backendStatus(ctx *fiber.Ctx) error {
	return ctx.Status(http.StatusOK).JSON(r.status.Current())
}

// @Summary 	Probe backend
// @Description Probes the backend health endpoint now
// @Tags 		status
// @Produce 	json
// @Success 	200 {object} entity.BackendHealth
// @Router 		/v1/backend/status [post]
func (r *V1) checkBackend(ctx *fiber.Ctx) error {
	return ctx.Status(http.StatusOK).JSON(r.status.Check(ctx.UserContext()))
}
