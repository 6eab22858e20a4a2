package handler

import (
	"github.com/d60-Lab/tagstream/internal/cache"
	"github.com/d60-Lab/tagstream/internal/repository"
	"github.com/d60-Lab/tagstream/internal/service"
)

// Handler 聚合读路径与推送入口的依赖
type Handler struct {
	ingestSvc service.IngestService
	tagRepo   repository.HashtagRepository
	posts     *cache.PostCache
	pageSize  int
}

func New(ingestSvc service.IngestService, tagRepo repository.HashtagRepository, posts *cache.PostCache, pageSize int) *Handler {
	if pageSize <= 0 {
		pageSize = 5
	}
	return &Handler{ingestSvc: ingestSvc, tagRepo: tagRepo, posts: posts, pageSize: pageSize}
}
