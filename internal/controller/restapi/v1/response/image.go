package response

import (
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/gallery"
)

type Image struct {
	Filename     string     `json:"filename" example:"cat.png"`
	Size         int64      `json:"size" example:"2048"`
	SizeLabel    string     `json:"size_label" example:"2 KB"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	CreatedLabel string     `json:"created_label" example:"01 Mar 2024, 10:00"`
	Width        int        `json:"width,omitempty" example:"800"`
	Height       int        `json:"height,omitempty" example:"600"`

	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Source       string `json:"source,omitempty" example:"thumbnail"`
	Placeholder  bool   `json:"placeholder"`

	DefaultResize Dimensions `json:"default_resize"`

	Record entity.ImageRecord `json:"record" swaggertype:"object"`
}

type Dimensions struct {
	Width  int `json:"width" example:"400"`
	Height int `json:"height" example:"300"`
}

type ImageList struct {
	Images []Image `json:"images"`
	Count  int     `json:"count" example:"1"`
}

type URL struct {
	Filename string `json:"filename" example:"cat.png"`
	URL      string `json:"url" example:"http://localhost:9001/images/cat.png"`
	Source   string `json:"source" example:"signed"`
}

func NewImageList(items []gallery.Item) ImageList {
	images := make([]Image, 0, len(items))
	for _, it := range items {
		w, h := gallery.DefaultResize(it.Record)

		images = append(images, Image{
			Filename:      it.Filename,
			Size:          it.Size,
			SizeLabel:     it.SizeLabel,
			CreatedAt:     it.CreatedAt,
			CreatedLabel:  it.CreatedLabel,
			Width:         it.Width,
			Height:        it.Height,
			ThumbnailURL:  it.ThumbnailURL,
			Source:        string(it.Source),
			Placeholder:   it.Placeholder,
			DefaultResize: Dimensions{Width: w, Height: h},
			Record:        it.Record,
		})
	}

	return ImageList{Images: images, Count: len(images)}
}
