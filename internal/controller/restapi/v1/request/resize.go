package request

// Resize carries pointers so a missing field can be told apart from zero.
type Resize struct {
	Width  *int `json:"width" example:"400"`
	Height *int `json:"height" example:"300"`
}
