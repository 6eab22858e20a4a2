package handler

import (
	"errors"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/tagstream/internal/repository"
	"github.com/d60-Lab/tagstream/pkg/logger"
	"github.com/d60-Lab/tagstream/pkg/response"
)

type hashtagStatView struct {
	Name       string `json:"name"`
	ClickCount int64  `json:"click_count"`
}

// ListHashtags 标签列表（按名称排序）
// @Summary 标签列表
// @Tags 标签
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/hashtags [get]
func (h *Handler) ListHashtags(c *gin.Context) {
	stats, err := h.tagRepo.ListStats(c.Request.Context())
	if err != nil {
		logger.Error("list hashtags failed", zap.Error(err))
		response.ServerError(c)
		return
	}
	out := make([]hashtagStatView, 0, len(stats))
	for _, s := range stats {
		out = append(out, hashtagStatView{Name: s.Name, ClickCount: s.ClickCount})
	}
	response.Success(c, out)
}

// Stats 浏览量统计（按点击数倒序展示）
// @Summary 标签浏览量统计
// @Tags 标签
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.tagRepo.ListStats(c.Request.Context())
	if err != nil {
		logger.Error("list stats failed", zap.Error(err))
		response.ServerError(c)
		return
	}
	out := make([]hashtagStatView, 0, len(stats))
	for _, s := range stats {
		out = append(out, hashtagStatView{Name: s.Name, ClickCount: s.ClickCount})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClickCount > out[j].ClickCount })
	response.Success(c, out)
}

// BrowsePosts 按标签浏览帖子，同时累加该标签的点击计数
// @Summary 按标签浏览帖子
// @Tags 标签
// @Produce json
// @Param name path string true "标签名（含 # 前缀）"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/hashtags/{name}/posts [get]
func (h *Handler) BrowsePosts(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		response.BadRequest(c, "hashtag name required")
		return
	}

	if _, err := h.tagRepo.IncrementClick(c.Request.Context(), name); err != nil {
		if errors.Is(err, repository.ErrHashtagNotFound) {
			response.NotFound(c, "unknown hashtag")
			return
		}
		logger.Error("increment click failed", zap.String("hashtag", name), zap.Error(err))
		response.ServerError(c)
		return
	}

	posts, err := h.posts.FindByHashtag(c.Request.Context(), name, h.pageSize)
	if err != nil {
		logger.Error("find posts failed", zap.String("hashtag", name), zap.Error(err))
		response.ServerError(c)
		return
	}
	response.Success(c, posts)
}
