package v1

import (
	"net/http"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/controller/restapi/v1/validate"
	"github.com/gofiber/fiber/v2"
)

// @Summary 	List images
// @Description Lists stored images with a resolved thumbnail URL each
// @Tags 		images
// @Produce 	json
// @Success 	200 {object} response.ImageList
// @Failure 	502 {object} response.Error "Backend unavailable"
// @Router 		/v1/images [get]
func (r *V1) listImages(ctx *fiber.Ctx) error {
	items, err := r.gallery.List(ctx.UserContext())
	if err != nil {
		return r.useCaseErrorResponse(ctx, "restapi - v1 - listImages", err)
	}

	return ctx.Status(http.StatusOK).JSON(response.NewImageList(items))
}

// @Summary  	Upload image
// @Description Validates the file and forwards it to the backend
// @Tags 		images
// @Accept 		mpfd
// @Produce 	json
// @Param 		file formData file true "Image file"
// @Success 	201 {object} object "Backend response"
// @Failure 	400 {object} response.Error "Empty file"
// @Failure 	413 {object} response.Error "File too large"
// @Failure 	415 {object} response.Error "Not an image"
// @Failure 	502 {object} response.Error "Backend unavailable"
// @Router 		/v1/upload [post]
func (r *V1) uploadImage(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "file is required")
	}

	// 1. validate before anything leaves the panel
	contentType := file.Header.Get(fiber.HeaderContentType)
	if err := r.gallery.ValidateUpload(contentType, file.Size); err != nil {
		return r.useCaseErrorResponse(ctx, "restapi - v1 - uploadImage", err)
	}

	// 2. open
	fileReader, err := file.Open()
	if err != nil {
		r.logger.Error(err, "restapi - v1 - uploadImage")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with opening the file")
	}
	defer fileReader.Close()

	// 3. forward
	resp, err := r.gallery.Upload(ctx.UserContext(), file.Filename, contentType, file.Size, fileReader)
	if err != nil {
		return r.useCaseErrorResponse(ctx, "restapi - v1 - uploadImage", err)
	}

	return sendRaw(ctx, http.StatusCreated, resp)
}

// @Summary 	Delete image
// @Tags 		images
// @Produce 	json
// @Param 		filename path string true "Filename"
// @Success 	200 {object} object "Backend response"
// @Failure 	400 {object} response.Error "Invalid filename"
// @Failure 	404 {object} response.Error "Image not found"
// @Failure 	502 {object} response.Error "Backend unavailable"
// @Router 		/v1/images/{filename} [delete]
func (r *V1) deleteImage(ctx *fiber.Ctx) error {
	filename, ok := validate.Filename(ctx.Params("filename"))
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "invalid filename")
	}

	resp, err := r.gallery.Delete(ctx.UserContext(), filename)
	if err != nil {
		return r.useCaseErrorResponse(ctx, "restapi - v1 - deleteImage", err)
	}

	return sendRaw(ctx, http.StatusOK, resp)
}

// @Summary 	Resolve image URL
// @Description Walks the URL fallback chain for the image
// @Tags 		images
// @Produce 	json
// @Param 		filename path  string true  "Filename"
// @Param 		prefer   query string false "Preferred source" Enums(proxy, signed, thumbnail)
// @Success 	200 {object} response.URL
// @Failure 	400 {object} response.Error "Invalid parameters"
// @Failure 	404 {object} response.Error "No displayable URL"
// @Router 		/v1/images/{filename}/url [get]
func (r *V1) imageURL(ctx *fiber.Ctx) error {
	filename, ok := validate.Filename(ctx.Params("filename"))
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "invalid filename")
	}

	prefer := ctx.Query("prefer")
	if !validate.AllowedPreferences[prefer] {
		return errorResponse(ctx, http.StatusBadRequest, "invalid prefer. Allowed: proxy, signed, thumbnail")
	}

	u, src, err := r.gallery.ResolveURL(ctx.UserContext(), filename, prefer)
	if err != nil {
		return r.useCaseErrorResponse(ctx, "restapi - v1 - imageURL", err)
	}

	return ctx.Status(http.StatusOK).JSON(response.URL{Filename: filename, URL: u, Source: string(src)})
}

// @Summary 	Full view URL
// @Description Signed URL first, backend proxy as fallback
// @Tags 		images
// @Produce 	json
// @Param 		filename path string true "Filename"
// @Success 	200 {object} response.URL
// @Failure 	404 {object} response.Error "No displayable URL"
// @Router 		/v1/images/{filename}/view [get]
func (r *V1) viewURL(ctx *fiber.Ctx) error {
	filename, ok := validate.Filename(ctx.Params("filename"))
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "invalid filename")
	}

	u, src, err := r.gallery.ViewURL(ctx.UserContext(), filename)
	if err != nil {
		return r.useCaseErrorResponse(ctx, "restapi - v1 - viewURL", err)
	}

	return ctx.Status(http.StatusOK).JSON(response.URL{Filename: filename, URL: u, Source: string(src)})
}

// @Summary 	Download image
// @Tags 		images
// @Produce 	image/jpeg,image/png,image/gif
// @Param 		filename path string true "Filename"
// @Success 	200 {file} 	binary
// @Failure 	404 {object} response.Error "Image not found"
// @Failure 	502 {object} response.Error "Backend unavailable"
// @Router 		/v1/images/{filename}/download [get]
func (r *V1) downloadImage(ctx *fiber.Ctx) error {
	filename, ok := validate.Filename(ctx.Params("filename"))
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "invalid filename")
	}

	body, contentType, err := r.gallery.Download(ctx.UserContext(), filename)
	if err != nil {
		return r.useCaseErrorResponse(ctx, "restapi - v1 - downloadImage", err)
	}

	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}

	ctx.Attachment(filename)
	ctx.Set(fiber.HeaderContentType, contentType)

	return ctx.SendStream(body)
}

// sendRaw passes a backend JSON answer through unchanged.
func sendRaw(ctx *fiber.Ctx, code int, raw []byte) error {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	return ctx.Status(code).Send(raw)
}
