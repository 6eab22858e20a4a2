package model

import "time"

// Post 频道消息落库后的帖子主体
type Post struct {
	ID string `gorm:"primaryKey;type:varchar(36)"`
	// 外部消息号，天然幂等键
	SourceMessageID int64 `gorm:"uniqueIndex:ux_post_source;not null"`
	// 相册标识；仅相册首条消息的帖子持有，唯一键用于收敛并发组装竞态
	MediaGroupID *string   `gorm:"type:varchar(64);uniqueIndex:ux_post_group"`
	Text         string    `gorm:"type:text"`
	PublishedAt  time.Time `gorm:"index:idx_post_published;not null"`
	CreatedAt    time.Time

	Hashtags []PostHashtag     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Media    []MediaAttachment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

func (Post) TableName() string { return "posts" }

// PostHashtag 帖子与标签的有序关联（按首次出现顺序）
type PostHashtag struct {
	ID     string `gorm:"primaryKey;type:varchar(36)"`
	PostID string `gorm:"type:varchar(36);not null;index:idx_ph_post;uniqueIndex:ux_ph_post_name"`
	Name   string `gorm:"type:varchar(128);not null;index:idx_ph_name;uniqueIndex:ux_ph_post_name"`
	// Position 标签在帖子内的出现序号，从 0 起
	Position int `gorm:"not null"`
}

func (PostHashtag) TableName() string { return "post_hashtags" }
