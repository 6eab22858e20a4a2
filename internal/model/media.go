package model

import "time"

// MediaKind 附件类型
type MediaKind string

const (
	MediaKindPhoto    MediaKind = "photo"
	MediaKindVideo    MediaKind = "video"
	MediaKindDocument MediaKind = "document"
	MediaKindAudio    MediaKind = "audio"
	MediaKindVoice    MediaKind = "voice"
)

// MediaAttachment 帖子的单个媒体附件；随帖子级联删除
type MediaAttachment struct {
	ID     string `gorm:"primaryKey;type:varchar(36)"`
	PostID string `gorm:"type:varchar(36);not null;index:idx_media_post"`
	// 贡献该附件的外部消息号；一条消息至多一个附件，唯一键挡住重投
	SourceMessageID int64     `gorm:"uniqueIndex:ux_media_source;not null"`
	Kind            MediaKind `gorm:"type:varchar(16);not null"`
	FileRef         string    `gorm:"type:varchar(512);not null"`
	UniqueRef       string    `gorm:"type:varchar(256)"`
	SizeBytes       int64
	Width           int
	Height          int
	DurationSeconds int
	MimeType        string `gorm:"type:varchar(128)"`
	FileName        string `gorm:"type:varchar(256)"`
	ThumbnailRef    string `gorm:"type:varchar(512)"`
	// OrderIndex 帖内序号，从 0 连续；仓储层在事务内维护
	OrderIndex int `gorm:"not null;index:idx_media_post_order"`
	CreatedAt  time.Time
}

func (MediaAttachment) TableName() string { return "media_attachments" }
