package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/tagstream/internal/model"
	"github.com/d60-Lab/tagstream/internal/repository"
)

// MediaSnapshot is the wire view of one attachment, ordered by its album position.
type MediaSnapshot struct {
	Kind            string `json:"kind"`
	FileRef         string `json:"file_ref"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	MimeType        string `json:"mime_type,omitempty"`
	FileName        string `json:"file_name,omitempty"`
	ThumbnailRef    string `json:"thumbnail_ref,omitempty"`
	OrderIndex      int    `json:"order_index"`
}

// PostSnapshot contains the fields the browse endpoints need.
type PostSnapshot struct {
	ID              string          `json:"id"`
	SourceMessageID int64           `json:"source_message_id"`
	Text            string          `json:"text,omitempty"`
	PublishedAt     time.Time       `json:"published_at"`
	Hashtags        []string        `json:"hashtags,omitempty"`
	Media           []MediaSnapshot `json:"media,omitempty"`
}

// PostCache serves hashtag browse queries through a TTL'd Redis snapshot.
// Stale-for-TTL is acceptable on the read path; ingestion never goes through it.
type PostCache struct {
	repo  repository.PostRepository
	cache *redis.Client
	ttl   time.Duration
}

// NewPostCache builds the read-through cache. cache may be nil, in which case
// every call falls through to the repository.
func NewPostCache(repo repository.PostRepository, cache *redis.Client, ttl time.Duration) *PostCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PostCache{repo: repo, cache: cache, ttl: ttl}
}

// FindByHashtag returns the most recent posts carrying the tag.
func (c *PostCache) FindByHashtag(ctx context.Context, name string, limit int) ([]PostSnapshot, error) {
	key := fmt.Sprintf("posts:bytag:%s:%d", name, limit)
	if c.cache != nil {
		if data, err := c.cache.Get(ctx, key).Bytes(); err == nil {
			var out []PostSnapshot
			if uErr := json.Unmarshal(data, &out); uErr == nil {
				return out, nil
			}
		}
	}

	posts, err := c.repo.FindByHashtag(ctx, name, limit)
	if err != nil {
		return nil, err
	}
	out := snapshotPosts(posts)

	if c.cache != nil {
		if payload, err := json.Marshal(out); err == nil {
			_ = c.cache.Set(ctx, key, payload, c.ttl).Err()
		}
	}
	return out, nil
}

func snapshotPosts(posts []*model.Post) []PostSnapshot {
	out := make([]PostSnapshot, 0, len(posts))
	for _, p := range posts {
		snap := PostSnapshot{
			ID:              p.ID,
			SourceMessageID: p.SourceMessageID,
			Text:            p.Text,
			PublishedAt:     p.PublishedAt,
		}
		for _, h := range p.Hashtags {
			snap.Hashtags = append(snap.Hashtags, h.Name)
		}
		for _, m := range p.Media {
			snap.Media = append(snap.Media, MediaSnapshot{
				Kind:            string(m.Kind),
				FileRef:         m.FileRef,
				Width:           m.Width,
				Height:          m.Height,
				DurationSeconds: m.DurationSeconds,
				MimeType:        m.MimeType,
				FileName:        m.FileName,
				ThumbnailRef:    m.ThumbnailRef,
				OrderIndex:      m.OrderIndex,
			})
		}
		out = append(out, snap)
	}
	return out
}
