package service

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/tagstream/internal/hashtag"
	"github.com/d60-Lab/tagstream/internal/media"
	"github.com/d60-Lab/tagstream/internal/model"
	"github.com/d60-Lab/tagstream/internal/repository"
	"github.com/d60-Lab/tagstream/internal/source"
	"github.com/d60-Lab/tagstream/pkg/logger"
)

var (
	// ErrEmptyMessage 既无文本也无可支持的附件，拒收且不入库
	ErrEmptyMessage = errors.New("message has no text and no supported media")
	// ErrMalformedSource 缺少必需的消息号
	ErrMalformedSource = errors.New("message has no valid source id")
)

// IngestStatus 单条消息的摄取结果
type IngestStatus int

const (
	StatusCreated IngestStatus = iota + 1
	StatusDuplicateSkipped
	StatusRejected
)

type IngestResult struct {
	Status IngestStatus
	PostID string
	// Reason 仅 Rejected 时填充
	Reason error
}

// BatchError 批处理中单条消息的失败记录
type BatchError struct {
	MessageID int64
	Err       error
}

// BatchResult 批处理摘要；Watermark 只越过连续成功的前缀
type BatchResult struct {
	Watermark  int64
	Created    int
	Duplicates int
	Rejected   int
	Errors     []BatchError
}

// IngestService 摄取协调器：去重、相册组装、原子落库、水位推进
type IngestService interface {
	// Ingest 处理一条消息；重投幂等
	Ingest(ctx context.Context, msg *source.Message) (IngestResult, error)

	// IngestBatch 按消息号升序逐条独立事务处理 watermark 之后的消息
	IngestBatch(ctx context.Context, msgs []*source.Message, watermark int64) BatchResult

	// OnMessage 推模式入口
	OnMessage(ctx context.Context, msg *source.Message) (IngestResult, error)

	// PollAndIngest 拉一页并批处理，返回推进后的水位
	PollAndIngest(ctx context.Context, watermark int64) (int64, error)
}

type ingestService struct {
	postRepo  repository.PostRepository
	extractor *hashtag.Extractor
	src       source.Source
	pageSize  int

	// polling 协作式 single-flight：有进行中的拉取则跳过本轮
	polling atomic.Bool
}

func NewIngestService(postRepo repository.PostRepository, extractor *hashtag.Extractor, src source.Source, pageSize int) IngestService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &ingestService{postRepo: postRepo, extractor: extractor, src: src, pageSize: pageSize}
}

func (s *ingestService) Ingest(ctx context.Context, msg *source.Message) (IngestResult, error) {
	if msg == nil || msg.ID <= 0 {
		return IngestResult{Status: StatusRejected, Reason: ErrMalformedSource}, nil
	}

	text, entities := msg.Content()
	desc := media.Normalize(msg.Attachment)
	if text == "" && desc == nil {
		return IngestResult{Status: StatusRejected, Reason: ErrEmptyMessage}, nil
	}
	tags := s.extractor.Extract(text, entities)

	existing, err := s.postRepo.FindBySourceMessageID(ctx, msg.ID)
	if err != nil {
		return IngestResult{}, err
	}
	if existing != nil {
		return IngestResult{Status: StatusDuplicateSkipped, PostID: existing.ID}, nil
	}

	// 相册组装：组内已有帖子则只追加媒体，不另建帖子
	if msg.MediaGroupID != "" {
		groupPost, err := s.postRepo.FindByMediaGroupID(ctx, msg.MediaGroupID)
		if err != nil {
			return IngestResult{}, err
		}
		if groupPost != nil {
			return s.appendToAlbum(ctx, groupPost.ID, msg, desc)
		}
	}

	return s.createPost(ctx, msg, text, tags, desc)
}

func (s *ingestService) appendToAlbum(ctx context.Context, postID string, msg *source.Message, desc *model.MediaAttachment) (IngestResult, error) {
	if desc == nil {
		// 组员无可用媒体（如不支持的类型），无事可做
		return IngestResult{Status: StatusDuplicateSkipped, PostID: postID}, nil
	}
	desc.SourceMessageID = msg.ID
	appended, err := s.postRepo.AppendMedia(ctx, postID, desc)
	if err != nil {
		return IngestResult{}, err
	}
	if !appended {
		return IngestResult{Status: StatusDuplicateSkipped, PostID: postID}, nil
	}
	return IngestResult{Status: StatusCreated, PostID: postID}, nil
}

func (s *ingestService) createPost(ctx context.Context, msg *source.Message, text string, tags []string, desc *model.MediaAttachment) (IngestResult, error) {
	post := &model.Post{
		SourceMessageID: msg.ID,
		Text:            text,
		PublishedAt:     msg.PublishedAt,
	}
	if post.PublishedAt.IsZero() {
		post.PublishedAt = time.Now()
	}
	if msg.MediaGroupID != "" {
		gid := msg.MediaGroupID
		post.MediaGroupID = &gid
	}
	var mediaList []model.MediaAttachment
	if desc != nil {
		desc.SourceMessageID = msg.ID
		mediaList = append(mediaList, *desc)
	}

	id, created, err := s.postRepo.Upsert(ctx, post, tags, mediaList)
	if err != nil {
		if msg.MediaGroupID != "" {
			// 组首建帖与并发组员撞了组唯一键：重查后转为追加
			groupPost, ferr := s.postRepo.FindByMediaGroupID(ctx, msg.MediaGroupID)
			if ferr == nil && groupPost != nil {
				return s.appendToAlbum(ctx, groupPost.ID, msg, desc)
			}
		}
		return IngestResult{}, err
	}
	if !created {
		return IngestResult{Status: StatusDuplicateSkipped, PostID: id}, nil
	}
	logger.Info("post ingested",
		zap.Int64("source_message_id", msg.ID),
		zap.String("post_id", id),
		zap.Int("hashtags", len(tags)),
		zap.Int("media", len(mediaList)))
	return IngestResult{Status: StatusCreated, PostID: id}, nil
}

func (s *ingestService) IngestBatch(ctx context.Context, msgs []*source.Message, watermark int64) BatchResult {
	ordered := make([]*source.Message, 0, len(msgs))
	for _, m := range msgs {
		if m != nil && m.ID > watermark {
			ordered = append(ordered, m)
		}
	}
	sortMessages(ordered)

	res := BatchResult{Watermark: watermark}
	advance := true
	for _, m := range ordered {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, BatchError{MessageID: m.ID, Err: err})
			break
		}
		out, err := s.Ingest(ctx, m)
		if err != nil {
			// 单条失败不终止批次，但水位停在失败之前
			res.Errors = append(res.Errors, BatchError{MessageID: m.ID, Err: err})
			logger.Error("ingest failed", zap.Int64("source_message_id", m.ID), zap.Error(err))
			advance = false
			continue
		}
		switch out.Status {
		case StatusCreated:
			res.Created++
		case StatusDuplicateSkipped:
			res.Duplicates++
		case StatusRejected:
			res.Rejected++
			logger.Warn("message rejected",
				zap.Int64("source_message_id", m.ID),
				zap.Error(out.Reason))
		}
		if advance {
			res.Watermark = m.ID
		}
	}
	return res
}

func (s *ingestService) OnMessage(ctx context.Context, msg *source.Message) (IngestResult, error) {
	return s.Ingest(ctx, msg)
}

func (s *ingestService) PollAndIngest(ctx context.Context, watermark int64) (int64, error) {
	if s.src == nil {
		return watermark, nil
	}
	if !s.polling.CompareAndSwap(false, true) {
		logger.Debug("poll already in flight, skipping")
		return watermark, nil
	}
	defer s.polling.Store(false)

	msgs, err := s.src.FetchSince(ctx, watermark, s.pageSize)
	if err != nil {
		return watermark, err
	}
	if len(msgs) == 0 {
		return watermark, nil
	}
	res := s.IngestBatch(ctx, msgs, watermark)
	if len(res.Errors) > 0 {
		return res.Watermark, res.Errors[0].Err
	}
	logger.Info("poll batch committed",
		zap.Int64("watermark", res.Watermark),
		zap.Int("created", res.Created),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("rejected", res.Rejected))
	return res.Watermark, nil
}

// sortMessages 按消息号升序；相册组装与水位推进都依赖该顺序
func sortMessages(msgs []*source.Message) {
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
}
