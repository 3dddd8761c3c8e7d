package resize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andreyxaxa/Image-Admin-Panel/pkg/types/errs"
)

// MaxDimension is the largest width or height accepted for a resize.
const MaxDimension = 5000

func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", errs.ErrInvalidDimensions)
	}

	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: dimensions cannot exceed %dpx", errs.ErrInvalidDimensions, MaxDimension)
	}

	return nil
}

// ParseDimensions validates raw form input. Both values are required.
func ParseDimensions(width, height string) (int, int, error) {
	width, height = strings.TrimSpace(width), strings.TrimSpace(height)
	if width == "" || height == "" {
		return 0, 0, errs.ErrDimensionsRequired
	}

	w, err := strconv.Atoi(width)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: width %q is not a number", errs.ErrInvalidDimensions, width)
	}

	h, err := strconv.Atoi(height)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: height %q is not a number", errs.ErrInvalidDimensions, height)
	}

	if err := ValidateDimensions(w, h); err != nil {
		return 0, 0, err
	}

	return w, h, nil
}
