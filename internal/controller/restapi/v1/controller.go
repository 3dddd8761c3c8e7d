package v1

import (
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/logger"
)

type V1 struct {
	gallery usecase.Gallery
	resize  usecase.Resize
	history usecase.History
	status  usecase.Status
	logger  logger.Interface
}
