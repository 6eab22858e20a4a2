package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/tagstream/internal/model"
)

type PostRepository interface {
	// Upsert 落库一条帖子及其标签行、媒体行、标签统计行（单事务）。
	// source_message_id 已存在时不落任何行，created 返回 false。
	Upsert(ctx context.Context, post *model.Post, hashtags []string, media []model.MediaAttachment) (id string, created bool, err error)

	// AppendMedia 向既有帖子追加媒体；帖内序号按贡献消息号重排保持确定性。
	// 同一消息号重投不追加，appended 返回 false。
	AppendMedia(ctx context.Context, postID string, m *model.MediaAttachment) (appended bool, err error)

	// FindBySourceMessageID 未找到返回 (nil, nil)
	FindBySourceMessageID(ctx context.Context, sourceID int64) (*model.Post, error)

	// FindByMediaGroupID 查找相册首条消息建立的帖子；未找到返回 (nil, nil)
	FindByMediaGroupID(ctx context.Context, groupID string) (*model.Post, error)

	// FindByHashtag 按发布时间倒序（同刻按消息号倒序），媒体按帖内序号预载
	FindByHashtag(ctx context.Context, name string, limit int) ([]*model.Post, error)

	// LastSourceMessageID 已入库的最大消息号（水位恢复用）
	LastSourceMessageID(ctx context.Context) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Upsert(ctx context.Context, post *model.Post, hashtags []string, media []model.MediaAttachment) (string, bool, error) {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 幂等：消息号撞唯一键时静默忽略，避免应用层 check-then-act 竞态
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_message_id"}},
			DoNothing: true,
		}).Omit("Hashtags", "Media").Create(post)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var existing model.Post
			if err := tx.Select("id").
				Where("source_message_id = ?", post.SourceMessageID).
				First(&existing).Error; err != nil {
				return err
			}
			post.ID = existing.ID
			return nil
		}
		created = true

		for i, name := range hashtags {
			ph := model.PostHashtag{ID: uuid.New().String(), PostID: post.ID, Name: name, Position: i}
			if err := tx.Create(&ph).Error; err != nil {
				return err
			}
		}
		for i := range media {
			m := media[i]
			m.ID = uuid.New().String()
			m.PostID = post.ID
			m.OrderIndex = i
			if m.SourceMessageID == 0 {
				m.SourceMessageID = post.SourceMessageID
			}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		}
		// 统计行缺则补，绝不覆盖已有计数
		for _, name := range hashtags {
			stat := model.HashtagStat{ID: uuid.New().String(), Name: name}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoNothing: true,
			}).Create(&stat).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return post.ID, created, nil
}

func (r *postRepository) AppendMedia(ctx context.Context, postID string, m *model.MediaAttachment) (bool, error) {
	appended := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 同帖追加必须串行：先锁帖子行，否则并发事务会算出同一序号。
		// sqlite 方言忽略行锁，由其单写锁兜底。
		var owner model.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", postID).First(&owner).Error; err != nil {
			return err
		}
		// 帖内序号 = 消息号更小的既有媒体数，乱序到达也收敛到同一排列
		var rank int64
		if err := tx.Model(&model.MediaAttachment{}).
			Where("post_id = ? AND source_message_id < ?", postID, m.SourceMessageID).
			Count(&rank).Error; err != nil {
			return err
		}
		m.ID = uuid.New().String()
		m.PostID = postID
		m.OrderIndex = int(rank)
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_message_id"}},
			DoNothing: true,
		}).Create(m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		appended = true
		// 其余成员整体后移一位，保持 0 起连续
		return tx.Model(&model.MediaAttachment{}).
			Where("post_id = ? AND id <> ? AND order_index >= ?", postID, m.ID, rank).
			UpdateColumn("order_index", gorm.Expr("order_index + 1")).Error
	})
	if err != nil {
		return false, err
	}
	return appended, nil
}

func (r *postRepository) FindBySourceMessageID(ctx context.Context, sourceID int64) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Where("source_message_id = ?", sourceID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindByMediaGroupID(ctx context.Context, groupID string) (*model.Post, error) {
	if groupID == "" {
		return nil, nil
	}
	var post model.Post
	err := r.db.WithContext(ctx).Where("media_group_id = ?", groupID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindByHashtag(ctx context.Context, name string, limit int) ([]*model.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	var posts []*model.Post
	err := r.db.WithContext(ctx).
		Joins("JOIN post_hashtags ON post_hashtags.post_id = posts.id").
		Where("post_hashtags.name = ?", name).
		Order("posts.published_at DESC, posts.source_message_id DESC").
		Limit(limit).
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("media_attachments.order_index ASC")
		}).
		Preload("Hashtags", func(db *gorm.DB) *gorm.DB {
			return db.Order("post_hashtags.position ASC")
		}).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) LastSourceMessageID(ctx context.Context) (int64, error) {
	// 相册后续成员不建帖子行，水位需同时看媒体表
	var postMax, mediaMax int64
	if err := r.db.WithContext(ctx).Model(&model.Post{}).
		Select("COALESCE(MAX(source_message_id), 0)").Scan(&postMax).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Model(&model.MediaAttachment{}).
		Select("COALESCE(MAX(source_message_id), 0)").Scan(&mediaMax).Error; err != nil {
		return 0, err
	}
	if mediaMax > postMax {
		return mediaMax, nil
	}
	return postMax, nil
}
