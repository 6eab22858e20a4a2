package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/tagstream/internal/api/handler"
)

// NewRouter 组装路由；读路径 + 推送入口
func NewRouter(h *handler.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	v1 := r.Group("/api/v1")
	{
		v1.GET("/hashtags", h.ListHashtags)
		v1.GET("/hashtags/:name/posts", h.BrowsePosts)
		v1.GET("/stats", h.Stats)
		v1.POST("/ingest", h.PushMessage)
	}
	return r
}
