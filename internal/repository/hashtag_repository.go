package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/tagstream/internal/model"
)

// ErrHashtagNotFound 点击了未登记的标签
var ErrHashtagNotFound = errors.New("hashtag not found")

type HashtagRepository interface {
	// Touch 缺行则以零计数补齐；重复执行安全，绝不覆盖已有计数
	Touch(ctx context.Context, names []string) error

	// IncrementClick 原子加一并返回新值；未登记返回 ErrHashtagNotFound
	IncrementClick(ctx context.Context, name string) (int64, error)

	// ListStats 按名称升序
	ListStats(ctx context.Context) ([]*model.HashtagStat, error)
}

type hashtagRepository struct {
	db *gorm.DB
}

func NewHashtagRepository(db *gorm.DB) HashtagRepository { return &hashtagRepository{db: db} }

func (r *hashtagRepository) Touch(ctx context.Context, names []string) error {
	for _, name := range names {
		stat := model.HashtagStat{ID: uuid.New().String(), Name: name}
		if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&stat).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *hashtagRepository) IncrementClick(ctx context.Context, name string) (int64, error) {
	// 单条 UPDATE 自增并用 RETURNING 取回本次结果；
	// 单独 SELECT 会把别人后到的点击也算进来
	var stat model.HashtagStat
	res := r.db.WithContext(ctx).Model(&stat).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "click_count"}}}).
		Where("name = ?", name).
		UpdateColumn("click_count", gorm.Expr("click_count + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrHashtagNotFound
	}
	return stat.ClickCount, nil
}

func (r *hashtagRepository) ListStats(ctx context.Context) ([]*model.HashtagStat, error) {
	var stats []*model.HashtagStat
	err := r.db.WithContext(ctx).Order("name ASC").Find(&stats).Error
	return stats, err
}
