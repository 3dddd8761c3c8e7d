package gallery

import (
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
)

const (
	_fallbackDimension = 500
	_dateLayout        = "02 Jan 2006, 15:04"
	_notAvailable      = "N/A"
)

// DefaultResize suggests half of the original dimensions, treating unknown
// ones as 500.
func DefaultResize(r entity.ImageRecord) (int, int) {
	w, ok := r.Width()
	if !ok {
		w = _fallbackDimension
	}

	h, ok := r.Height()
	if !ok {
		h = _fallbackDimension
	}

	return max(w/2, 1), max(h/2, 1)
}

func FormatDate(t time.Time, ok bool) string {
	if !ok {
		return _notAvailable
	}

	return t.Local().Format(_dateLayout)
}

func newItem(r entity.ImageRecord) Item {
	it := Item{
		Filename: r.Filename(),
		Size:     r.Size(),
		Record:   r,
	}
	it.SizeLabel = entity.FormatSize(it.Size)

	created, ok := r.CreatedAt()
	if ok {
		it.CreatedAt = &created
	}
	it.CreatedLabel = FormatDate(created, ok)

	it.Width, _ = r.Width()
	it.Height, _ = r.Height()

	return it
}
