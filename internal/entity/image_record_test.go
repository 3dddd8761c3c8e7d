package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRecord_Filename(t *testing.T) {
	tests := []struct {
		name   string
		record ImageRecord
		want   string
	}{
		{"nombre wins", ImageRecord{"nombre": "a.png", "filename": "b.png"}, "a.png"},
		{"filename", ImageRecord{"filename": "b.png", "name": "c.png"}, "b.png"},
		{"name", ImageRecord{"name": "c.png", "key": "d.png"}, "c.png"},
		{"key", ImageRecord{"key": "d.png"}, "d.png"},
		{"empty string skipped", ImageRecord{"nombre": "", "key": "d.png"}, "d.png"},
		{"nil skipped", ImageRecord{"filename": nil, "name": "c.png"}, "c.png"},
		{"non-string value", ImageRecord{"key": json.Number("42")}, "42"},
		{"absent", ImageRecord{"size": 10}, UnnamedFilename},
		{"nil record", nil, UnnamedFilename},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.Filename())
		})
	}
}

func TestImageRecord_SizeAndDimensions(t *testing.T) {
	r := ImageRecord{"file_size": json.Number("2048"), "ancho": 800.0, "height": "600"}

	assert.Equal(t, int64(2048), r.Size())

	w, ok := r.Width()
	require.True(t, ok)
	assert.Equal(t, 800, w)

	h, ok := r.Height()
	require.True(t, ok)
	assert.Equal(t, 600, h)

	_, ok = ImageRecord{"width": -1}.Width()
	assert.False(t, ok)

	assert.Equal(t, int64(0), ImageRecord{"size": "garbage"}.Size())
	assert.Equal(t, int64(5), ImageRecord{"tamaño": 5, "size": 9}.Size())
}

func TestImageRecord_CreatedAt(t *testing.T) {
	ts, ok := ImageRecord{"created_at": "2025-03-01T10:20:30Z"}.CreatedAt()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC), ts)

	ts, ok = ImageRecord{"last_modified": json.Number("1700000000")}.CreatedAt()
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), ts.Unix())

	ts, ok = ImageRecord{"upload_date": json.Number("1700000000000")}.CreatedAt()
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), ts.Unix())

	_, ok = ImageRecord{"created_at": "yesterday"}.CreatedAt()
	assert.False(t, ok)
}

func TestImageRecord_WithDimensions(t *testing.T) {
	orig := ImageRecord{"filename": "a.png", "width": 10}
	updated := orig.WithDimensions(300, 200)

	assert.Equal(t, 10, orig["width"])
	assert.Equal(t, 300, updated["width"])
	assert.Equal(t, 200, updated["height"])
	assert.Equal(t, "a.png", updated.Filename())
}

func TestDecodeImageList(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		count   int
		ok      bool
	}{
		{"bare array", `[{"filename":"a.png"},{"filename":"b.png"}]`, 2, true},
		{"images key", `{"images":[{"name":"a.png"}]}`, 1, true},
		{"data key", `{"data":[{"key":"a"},{"key":"b"},{"key":"c"}]}`, 3, true},
		{"empty array", `[]`, 0, true},
		{"string items", `["a.png", "b.png"]`, 2, true},
		{"mixed items keep length", `[{"filename":"a.png"}, 7, null]`, 3, true},
		{"object without list", `{"items":[{"filename":"a.png"}]}`, 0, false},
		{"images not a list", `{"images":"a.png"}`, 0, false},
		{"scalar", `"nope"`, 0, false},
		{"invalid json", `{`, 0, false},
		{"empty body", ``, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, ok := DecodeImageList([]byte(tt.payload))

			assert.Equal(t, tt.ok, ok)
			assert.Len(t, records, tt.count)
			assert.NotNil(t, records)
		})
	}
}

func TestDecodeImageList_StringItemsAreFilenames(t *testing.T) {
	records, ok := DecodeImageList([]byte(`["a.png"]`))
	require.True(t, ok)
	assert.Equal(t, "a.png", records[0].Filename())
}

func TestRemoveByFilename(t *testing.T) {
	records := []ImageRecord{
		{"filename": "a.png"},
		{"nombre": "b.png"},
		{"key": "c.png"},
	}

	out := RemoveByFilename(records, "a.png")

	require.Len(t, out, 2)
	assert.Equal(t, "b.png", out[0].Filename())
	assert.Equal(t, "c.png", out[1].Filename())
	assert.Len(t, records, 3)

	assert.Len(t, RemoveByFilename(records, "missing.png"), 3)
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		0:                  "0 Bytes",
		512:                "512 Bytes",
		1024:               "1 KB",
		1536:               "1.5 KB",
		10 * 1024 * 1024:   "10 MB",
		3 * 1024 * 1 << 30: "3072 GB",
	}

	for in, want := range tests {
		assert.Equal(t, want, FormatSize(in), "size %d", in)
	}
}
