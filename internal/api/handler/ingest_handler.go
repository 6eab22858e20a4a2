package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/tagstream/internal/service"
	"github.com/d60-Lab/tagstream/internal/source"
	"github.com/d60-Lab/tagstream/pkg/logger"
	"github.com/d60-Lab/tagstream/pkg/response"
)

type ingestResultView struct {
	Status string `json:"status"`
	PostID string `json:"post_id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// PushMessage 推模式入口：频道每投递一条新消息调用一次，重投安全
// @Summary 推送一条频道消息
// @Tags 摄取
// @Accept json
// @Produce json
// @Param request body source.Message true "频道消息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/ingest [post]
func (h *Handler) PushMessage(c *gin.Context) {
	var msg source.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.ingestSvc.OnMessage(c.Request.Context(), &msg)
	if err != nil {
		logger.Error("push ingest failed", zap.Int64("source_message_id", msg.ID), zap.Error(err))
		response.ServerError(c)
		return
	}

	view := ingestResultView{PostID: res.PostID}
	switch res.Status {
	case service.StatusCreated:
		view.Status = "created"
	case service.StatusDuplicateSkipped:
		view.Status = "duplicate_skipped"
	case service.StatusRejected:
		view.Status = "rejected"
		if res.Reason != nil {
			view.Reason = res.Reason.Error()
		}
	}
	response.Success(c, view)
}
