package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/tagstream/internal/model"
	"github.com/d60-Lab/tagstream/internal/repository"
)

func setupCacheTest(t *testing.T) (*PostCache, repository.PostRepository, *miniredis.Miniredis) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&model.Post{},
		&model.PostHashtag{},
		&model.MediaAttachment{},
		&model.HashtagStat{},
	))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := repository.NewPostRepository(db)
	return NewPostCache(repo, rdb, time.Minute), repo, mr
}

func seedPost(t *testing.T, repo repository.PostRepository, srcID int64, text string) {
	t.Helper()
	post := &model.Post{SourceMessageID: srcID, Text: text, PublishedAt: time.Now()}
	_, _, err := repo.Upsert(context.Background(), post, []string{"#Новости"}, []model.MediaAttachment{
		{Kind: model.MediaKindPhoto, FileRef: "f", SourceMessageID: srcID},
	})
	require.NoError(t, err)
}

func TestFindByHashtagReadThrough(t *testing.T) {
	c, repo, mr := setupCacheTest(t)
	ctx := context.Background()

	seedPost(t, repo, 1, "первый #Новости")

	got, err := c.FindByHashtag(ctx, "#Новости", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.EqualValues(t, 1, got[0].SourceMessageID)
	assert.Equal(t, []string{"#Новости"}, got[0].Hashtags)
	require.Len(t, got[0].Media, 1)
	assert.Equal(t, "photo", got[0].Media[0].Kind)

	// 命中缓存：新帖在 TTL 内不可见
	seedPost(t, repo, 2, "второй #Новости")
	got, err = c.FindByHashtag(ctx, "#Новости", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// TTL 过期后穿透到库
	mr.FastForward(2 * time.Minute)
	got, err = c.FindByHashtag(ctx, "#Новости", 5)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFindByHashtagNilClientFallsThrough(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Post{}, &model.PostHashtag{}, &model.MediaAttachment{}, &model.HashtagStat{}))
	repo := repository.NewPostRepository(db)
	c := NewPostCache(repo, nil, time.Minute)

	seedPost(t, repo, 1, "#Новости")
	got, err := c.FindByHashtag(context.Background(), "#Новости", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFindByHashtagEmptyResultCached(t *testing.T) {
	c, _, _ := setupCacheTest(t)

	got, err := c.FindByHashtag(context.Background(), "#пусто", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
