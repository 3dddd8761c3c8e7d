package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// UnnamedFilename stands in for records that carry no usable name field.
const UnnamedFilename = "unnamed"

// ImageRecord is a backend list item. Backends disagree on field names, so
// every field is read through an ordered alias list.
type ImageRecord map[string]any

var (
	filenameAliases = []string{"nombre", "filename", "name", "key"}
	sizeAliases     = []string{"tamaño", "size", "file_size", "length"}
	createdAliases  = []string{"fecha_creacion", "created_at", "upload_date", "modified_at", "last_modified"}
	widthAliases    = []string{"width", "ancho"}
	heightAliases   = []string{"height", "alto"}
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// firstDefined returns the value of the first alias that is present, non-nil
// and not an empty string.
func firstDefined(r ImageRecord, aliases []string) (any, bool) {
	for _, alias := range aliases {
		v, ok := r[alias]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}

		return v, true
	}

	return nil, false
}

func (r ImageRecord) Filename() string {
	v, ok := firstDefined(r, filenameAliases)
	if !ok {
		return UnnamedFilename
	}

	if s, isString := v.(string); isString {
		return s
	}

	return fmt.Sprint(v)
}

// Size is the size in bytes, 0 when unknown.
func (r ImageRecord) Size() int64 {
	v, ok := firstDefined(r, sizeAliases)
	if !ok {
		return 0
	}

	n, ok := toInt64(v)
	if !ok || n < 0 {
		return 0
	}

	return n
}

func (r ImageRecord) CreatedAt() (time.Time, bool) {
	v, ok := firstDefined(r, createdAliases)
	if !ok {
		return time.Time{}, false
	}

	if s, isString := v.(string); isString {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}

		return time.Time{}, false
	}

	n, ok := toInt64(v)
	if !ok || n <= 0 {
		return time.Time{}, false
	}

	// millisecond timestamps
	if n > 1e12 {
		return time.UnixMilli(n).UTC(), true
	}

	return time.Unix(n, 0).UTC(), true
}

func (r ImageRecord) Width() (int, bool) {
	return r.dimension(widthAliases)
}

func (r ImageRecord) Height() (int, bool) {
	return r.dimension(heightAliases)
}

func (r ImageRecord) dimension(aliases []string) (int, bool) {
	v, ok := firstDefined(r, aliases)
	if !ok {
		return 0, false
	}

	n, ok := toInt64(v)
	if !ok || n <= 0 || n > math.MaxInt32 {
		return 0, false
	}

	return int(n), true
}

// WithDimensions returns a copy of r carrying the given width and height.
func (r ImageRecord) WithDimensions(width, height int) ImageRecord {
	out := make(ImageRecord, len(r)+2)
	for k, v := range r {
		out[k] = v
	}

	out["width"] = width
	out["height"] = height

	return out
}

// DecodeImageList accepts a bare array, {"images": [...]} or {"data": [...]}.
// Any other payload yields an empty list and false. Array elements that are
// strings are taken as filenames; other non-objects become empty records so
// the list length always matches the payload.
func DecodeImageList(data []byte) ([]ImageRecord, bool) {
	var payload any

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := dec.Decode(&payload); err != nil {
		return []ImageRecord{}, false
	}

	switch p := payload.(type) {
	case []any:
		return toRecords(p), true
	case map[string]any:
		for _, key := range []string{"images", "data"} {
			if items, ok := p[key].([]any); ok {
				return toRecords(items), true
			}
		}
	}

	return []ImageRecord{}, false
}

// RemoveByFilename returns records without the ones named filename.
func RemoveByFilename(records []ImageRecord, filename string) []ImageRecord {
	out := make([]ImageRecord, 0, len(records))
	for _, r := range records {
		if r.Filename() == filename {
			continue
		}
		out = append(out, r)
	}

	return out
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders bytes as "1.5 KB", with at most two decimals.
func FormatSize(size int64) string {
	if size <= 0 {
		return "0 Bytes"
	}

	i := int(math.Floor(math.Log(float64(size)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}

	v := float64(size) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100

	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

func toRecords(items []any) []ImageRecord {
	records := make([]ImageRecord, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case map[string]any:
			records = append(records, ImageRecord(v))
		case string:
			records = append(records, ImageRecord{"filename": v})
		default:
			records = append(records, ImageRecord{})
		}
	}

	return records
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}
