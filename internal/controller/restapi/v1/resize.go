package v1

import (
	"errors"
	"net/http"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/controller/restapi/v1/request"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	_defaultWorkflowLimit = 50
	_maxWorkflowLimit     = 200
)

// @Summary 	Start resize
// @Description Submits a resize and polls the task in the background
// @Tags 		resize
// @Accept 		json
// @Produce 	json
// @Param 		filename path string 		 true "Filename"
// @Param 		body 	 body request.Resize true "Target dimensions, each 1..5000"
// @Success 	200 {object} entity.ResizeWorkflow "Settled at submission"
// @Success 	202 {object} entity.ResizeWorkflow "Polling"
// @Failure 	400 {object} response.Error "Invalid dimensions"
// @Router 		/v1/images/{filename}/resize [post]
func (r *V1) startResize(ctx *fiber.Ctx) error {
	filename, ok := validate.Filename(ctx.Params("filename"))
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "invalid filename")
	}

	var body request.Resize
	if err := ctx.BodyParser(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if body.Width == nil || body.Height == nil {
		return errorResponse(ctx, http.StatusBadRequest, errs.ErrDimensionsRequired.Error())
	}

	wf, err := r.resize.Start(ctx.UserContext(), filename, *body.Width, *body.Height)
	if err != nil {
		return r.useCaseErrorResponse(ctx, "restapi - v1 - startResize", err)
	}

	code := http.StatusOK
	if wf.State == entity.StateProcessing {
		code = http.StatusAccepted
	}

	return ctx.Status(code).JSON(wf)
}

// @Summary 	Workflow history
// @Tags 		resize
// @Produce 	json
// @Param 		limit query int false "Max items (default 50, max 200)"
// @Success 	200 {object} response.WorkflowList
// @Router 		/v1/workflows [get]
func (r *V1) listWorkflows(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", _defaultWorkflowLimit)
	if limit <= 0 || limit > _maxWorkflowLimit {
		return errorResponse(ctx, http.StatusBadRequest, "limit must be between 1 and 200")
	}

	ws, err := r.history.List(ctx.UserContext(), limit)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - listWorkflows")

		return errorResponse(ctx, http.StatusInternalServerError, "history problems")
	}

	out := make([]entity.ResizeWorkflow, 0, len(ws))
	for _, w := range ws {
		out = append(out, *w)
	}

	return ctx.Status(http.StatusOK).JSON(response.WorkflowList{Workflows: out, Count: len(out)})
}

// @Summary 	Workflow state
// @Tags 		resize
// @Produce 	json
// @Param 		id path string true "Workflow ID(uuid)"
// @Success 	200 {object} entity.ResizeWorkflow
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Workflow not found"
// @Router 		/v1/workflows/{id} [get]
func (r *V1) getWorkflow(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	// live workflows first, persisted history for older ones
	wf, err := r.resize.Get(id)
	if err == nil {
		return ctx.Status(http.StatusOK).JSON(wf)
	}

	stored, err := r.history.Get(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrWorkflowNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "workflow not found")
		}
		r.logger.Error(err, "restapi - v1 - getWorkflow")

		return errorResponse(ctx, http.StatusInternalServerError, "history problems")
	}

	return ctx.Status(http.StatusOK).JSON(stored)
}

// @Summary 	Dismiss workflow
// @Description Stops observing the workflow; the backend job is left running
// @Tags 		resize
// @Produce 	json
// @Param 		id path string true "Workflow ID(uuid)"
// @Success 	200 {object} entity.ResizeWorkflow
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Workflow not found"
// @Router 		/v1/workflows/{id} [delete]
func (r *V1) dismissWorkflow(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	wf, err := r.resize.Dismiss(id)
	if err != nil {
		return r.useCaseErrorResponse(ctx, "restapi - v1 - dismissWorkflow", err)
	}

	return ctx.Status(http.StatusOK).JSON(wf)
}
