package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure/backend"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

var validationErrors = []struct {
	err  error
	code int
}{
	{errs.ErrEmptyFile, http.StatusBadRequest},
	{errs.ErrInvalidDimensions, http.StatusBadRequest},
	{errs.ErrDimensionsRequired, http.StatusBadRequest},
	{errs.ErrFilenameRequired, http.StatusBadRequest},
	{errs.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{errs.ErrUnsupportedFile, http.StatusUnsupportedMediaType},
}

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Error: msg})
}

// useCaseErrorResponse maps a use case error to a status and a message a user
// can act on. Only unexpected errors are logged.
func (r *V1) useCaseErrorResponse(ctx *fiber.Ctx, where string, err error) error {
	for _, v := range validationErrors {
		if errors.Is(err, v.err) {
			return errorResponse(ctx, v.code, userMessage(err, v.err))
		}
	}

	switch {
	case errors.Is(err, errs.ErrWorkflowNotFound):
		return errorResponse(ctx, http.StatusNotFound, "workflow not found")
	case errors.Is(err, errs.ErrUnresolvable):
		return errorResponse(ctx, http.StatusNotFound, "no displayable url for this image")
	case backend.StatusCode(err) == http.StatusNotFound:
		return errorResponse(ctx, http.StatusNotFound, "image not found")
	}

	r.logger.Error(err, where)

	return errorResponse(ctx, http.StatusBadGateway, "image backend unavailable")
}

// userMessage returns the most detailed message in the chain that still
// starts with the sentinel's text, leaving out the "Type - Method" wrapping.
func userMessage(err, sentinel error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if strings.HasPrefix(e.Error(), sentinel.Error()) {
			return e.Error()
		}
	}

	return sentinel.Error()
}
