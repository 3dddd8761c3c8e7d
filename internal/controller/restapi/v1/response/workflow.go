package response

import "github.com/andreyxaxa/Image-Admin-Panel/internal/entity"

type WorkflowList struct {
	Workflows []entity.ResizeWorkflow `json:"workflows"`
	Count     int                     `json:"count" example:"1"`
}

type Health struct {
	Status string `json:"status" example:"ok"`
}
