package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/tagstream/internal/model"
	"github.com/d60-Lab/tagstream/internal/source"
)

func TestNormalizeNil(t *testing.T) {
	assert.Nil(t, Normalize(nil))
}

func TestNormalizePhotoPicksLargestVariant(t *testing.T) {
	att := &source.Attachment{
		Kind: source.KindPhoto,
		PhotoVariants: []source.PhotoVariant{
			{FileRef: "p-small", Width: 90, Height: 60},
			{FileRef: "p-mid", Width: 320, Height: 213},
			{FileRef: "p-big", Width: 1280, Height: 853, SizeBytes: 240000},
		},
	}
	desc := Normalize(att)
	require.NotNil(t, desc)
	assert.Equal(t, model.MediaKindPhoto, desc.Kind)
	assert.Equal(t, "p-big", desc.FileRef)
	assert.Equal(t, 1280, desc.Width)
	assert.Equal(t, int64(240000), desc.SizeBytes)
}

func TestNormalizePhotoWithoutVariants(t *testing.T) {
	assert.Nil(t, Normalize(&source.Attachment{Kind: source.KindPhoto}))
}

func TestNormalizeVideo(t *testing.T) {
	desc := Normalize(&source.Attachment{
		Kind:            source.KindVideo,
		FileRef:         "v1",
		Width:           1920,
		Height:          1080,
		DurationSeconds: 42,
		MimeType:        "video/mp4",
		ThumbnailRef:    "thumb1",
	})
	require.NotNil(t, desc)
	assert.Equal(t, model.MediaKindVideo, desc.Kind)
	assert.Equal(t, 42, desc.DurationSeconds)
	assert.Equal(t, "thumb1", desc.ThumbnailRef)
}

func TestNormalizeDocument(t *testing.T) {
	desc := Normalize(&source.Attachment{
		Kind:     source.KindDocument,
		FileRef:  "d1",
		MimeType: "application/pdf",
		FileName: "guide.pdf",
	})
	require.NotNil(t, desc)
	assert.Equal(t, model.MediaKindDocument, desc.Kind)
	assert.Equal(t, "guide.pdf", desc.FileName)
	assert.Zero(t, desc.DurationSeconds)
}

func TestNormalizeVoice(t *testing.T) {
	desc := Normalize(&source.Attachment{
		Kind:            source.KindVoice,
		FileRef:         "voice1",
		DurationSeconds: 7,
		MimeType:        "audio/ogg",
	})
	require.NotNil(t, desc)
	assert.Equal(t, model.MediaKindVoice, desc.Kind)
	assert.Equal(t, 7, desc.DurationSeconds)
}

func TestNormalizeUnsupportedKind(t *testing.T) {
	assert.Nil(t, Normalize(&source.Attachment{Kind: "sticker", FileRef: "s1"}))
	assert.Nil(t, Normalize(&source.Attachment{Kind: "animation", FileRef: "a1"}))
}
