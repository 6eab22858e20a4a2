package source

import (
	"context"
	"time"
)

// EntityType 上游对文本片段的语义标注类型
type EntityType string

const EntityHashtag EntityType = "hashtag"

// Entity 文本内的标注区间；Offset/Length 以 rune 计
type Entity struct {
	Offset int        `json:"offset"`
	Length int        `json:"length"`
	Type   EntityType `json:"type"`
}

// AttachmentKind 上游附件类型；未列举的类型按不支持跳过
type AttachmentKind string

const (
	KindPhoto    AttachmentKind = "photo"
	KindVideo    AttachmentKind = "video"
	KindDocument AttachmentKind = "document"
	KindAudio    AttachmentKind = "audio"
	KindVoice    AttachmentKind = "voice"
)

// PhotoVariant 同一张图片的一个分辨率版本
type PhotoVariant struct {
	FileRef   string `json:"file_ref"`
	UniqueRef string `json:"unique_ref,omitempty"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// Attachment 一条消息携带的附件（协议保证至多一个）
type Attachment struct {
	Kind AttachmentKind `json:"kind"`
	// PhotoVariants 仅 photo 类型填充，按尺寸升序
	PhotoVariants   []PhotoVariant `json:"photo_variants,omitempty"`
	FileRef         string         `json:"file_ref,omitempty"`
	UniqueRef       string         `json:"unique_ref,omitempty"`
	SizeBytes       int64          `json:"size_bytes,omitempty"`
	Width           int            `json:"width,omitempty"`
	Height          int            `json:"height,omitempty"`
	DurationSeconds int            `json:"duration_seconds,omitempty"`
	MimeType        string         `json:"mime_type,omitempty"`
	FileName        string         `json:"file_name,omitempty"`
	ThumbnailRef    string         `json:"thumbnail_ref,omitempty"`
}

// Message 频道来源交付的一条消息
type Message struct {
	// ID 上游单调分配的消息号
	ID           int64  `json:"id" binding:"required"`
	MediaGroupID string `json:"media_group_id,omitempty"`
	Text         string `json:"text,omitempty"`
	Caption      string `json:"caption,omitempty"`
	// Entities 对应 Text；CaptionEntities 对应 Caption
	Entities        []Entity    `json:"entities,omitempty"`
	CaptionEntities []Entity    `json:"caption_entities,omitempty"`
	PublishedAt     time.Time   `json:"published_at,omitempty"`
	Attachment      *Attachment `json:"attachment,omitempty"`
}

// Content 返回正文或配文及其标注；正文优先
func (m *Message) Content() (string, []Entity) {
	if m.Text != "" {
		return m.Text, m.Entities
	}
	return m.Caption, m.CaptionEntities
}

// Source 频道消息来源；拉模式从 afterID 之后取一页
type Source interface {
	FetchSince(ctx context.Context, afterID int64, limit int) ([]*Message, error)
}
