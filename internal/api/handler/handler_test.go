package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/tagstream/internal/cache"
	"github.com/d60-Lab/tagstream/internal/hashtag"
	"github.com/d60-Lab/tagstream/internal/model"
	"github.com/d60-Lab/tagstream/internal/repository"
	"github.com/d60-Lab/tagstream/internal/service"
	"github.com/d60-Lab/tagstream/pkg/response"
)

func setupHandlerTest(t *testing.T) (*gin.Engine, repository.HashtagRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Post{}, &model.PostHashtag{}, &model.MediaAttachment{}, &model.HashtagStat{}))

	postRepo := repository.NewPostRepository(db)
	tagRepo := repository.NewHashtagRepository(db)
	ext := hashtag.NewExtractor([]string{"#Новости"})
	svc := service.NewIngestService(postRepo, ext, nil, 100)
	h := New(svc, tagRepo, cache.NewPostCache(postRepo, nil, time.Minute), 5)

	r := gin.New()
	r.GET("/api/v1/hashtags", h.ListHashtags)
	r.GET("/api/v1/hashtags/:name/posts", h.BrowsePosts)
	r.GET("/api/v1/stats", h.Stats)
	r.POST("/api/v1/ingest", h.PushMessage)
	return r, tagRepo
}

func TestPushThenBrowse(t *testing.T) {
	r, tagRepo := setupHandlerTest(t)
	require.NoError(t, tagRepo.Touch(context.Background(), []string{"#Новости"}))

	body := `{"id": 1, "text": "привет #Новости", "entities": [{"offset": 7, "length": 8, "type": "hashtag"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)

	// 重投同一条
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/ingest", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := json.Marshal(resp.Data)
	assert.Contains(t, string(data), "duplicate_skipped")

	// 浏览计点击
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/hashtags/%23Новости/posts", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	stats, err := tagRepo.ListStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.EqualValues(t, 1, stats[0].ClickCount)
}

func TestBrowseUnknownHashtag(t *testing.T) {
	r, _ := setupHandlerTest(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/hashtags/%23нет/posts", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPushRejectsEmptyMessage(t *testing.T) {
	r, _ := setupHandlerTest(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", bytes.NewBufferString(`{"id": 7}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := json.Marshal(resp.Data)
	assert.Contains(t, string(data), "rejected")
}

func TestStatsSortedByClicks(t *testing.T) {
	r, tagRepo := setupHandlerTest(t)
	require.NoError(t, tagRepo.Touch(context.Background(), []string{"#а", "#б"}))
	for i := 0; i < 3; i++ {
		_, err := tagRepo.IncrementClick(context.Background(), "#б")
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Name       string `json:"name"`
			ClickCount int64  `json:"click_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "#б", resp.Data[0].Name)
	assert.EqualValues(t, 3, resp.Data[0].ClickCount)
}
