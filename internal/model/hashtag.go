package model

import "time"

// HashtagStat 标签点击计数；只增不删
type HashtagStat struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Name       string `gorm:"type:varchar(128);uniqueIndex:ux_hashtag_name;not null"`
	ClickCount int64  `gorm:"not null;default:0"`
	CreatedAt  time.Time
}

func (HashtagStat) TableName() string { return "hashtag_stats" }
