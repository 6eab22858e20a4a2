package media

import (
	"go.uber.org/zap"

	"github.com/d60-Lab/tagstream/internal/model"
	"github.com/d60-Lab/tagstream/internal/source"
	"github.com/d60-Lab/tagstream/pkg/logger"
)

// Normalize 将来源附件归一化为媒体描述符；OrderIndex 由仓储层分配。
// 不支持的类型记日志并返回 nil，不算错误。
func Normalize(att *source.Attachment) *model.MediaAttachment {
	if att == nil {
		return nil
	}
	switch att.Kind {
	case source.KindPhoto:
		return normalizePhoto(att)
	case source.KindVideo:
		return &model.MediaAttachment{
			Kind:            model.MediaKindVideo,
			FileRef:         att.FileRef,
			UniqueRef:       att.UniqueRef,
			SizeBytes:       att.SizeBytes,
			Width:           att.Width,
			Height:          att.Height,
			DurationSeconds: att.DurationSeconds,
			MimeType:        att.MimeType,
			FileName:        att.FileName,
			ThumbnailRef:    att.ThumbnailRef,
		}
	case source.KindDocument:
		return &model.MediaAttachment{
			Kind:         model.MediaKindDocument,
			FileRef:      att.FileRef,
			UniqueRef:    att.UniqueRef,
			SizeBytes:    att.SizeBytes,
			MimeType:     att.MimeType,
			FileName:     att.FileName,
			ThumbnailRef: att.ThumbnailRef,
		}
	case source.KindAudio:
		return &model.MediaAttachment{
			Kind:            model.MediaKindAudio,
			FileRef:         att.FileRef,
			UniqueRef:       att.UniqueRef,
			SizeBytes:       att.SizeBytes,
			DurationSeconds: att.DurationSeconds,
			MimeType:        att.MimeType,
			FileName:        att.FileName,
			ThumbnailRef:    att.ThumbnailRef,
		}
	case source.KindVoice:
		return &model.MediaAttachment{
			Kind:            model.MediaKindVoice,
			FileRef:         att.FileRef,
			UniqueRef:       att.UniqueRef,
			SizeBytes:       att.SizeBytes,
			DurationSeconds: att.DurationSeconds,
			MimeType:        att.MimeType,
		}
	default:
		logger.Warn("unsupported attachment kind skipped", zap.String("kind", string(att.Kind)))
		return nil
	}
}

// normalizePhoto 多分辨率取最大一档（约定按尺寸升序，取末位）
func normalizePhoto(att *source.Attachment) *model.MediaAttachment {
	if len(att.PhotoVariants) == 0 {
		logger.Warn("photo attachment without variants skipped")
		return nil
	}
	best := att.PhotoVariants[len(att.PhotoVariants)-1]
	return &model.MediaAttachment{
		Kind:      model.MediaKindPhoto,
		FileRef:   best.FileRef,
		UniqueRef: best.UniqueRef,
		SizeBytes: best.SizeBytes,
		Width:     best.Width,
		Height:    best.Height,
	}
}
