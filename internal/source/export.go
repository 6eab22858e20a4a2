package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// RichText 兼容导出文件中 text 既可能是纯字符串、
// 也可能是字符串与 {type,text} 对象混排数组的两种形态
type RichText struct {
	Plain    string
	Segments []string
}

func (t *RichText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Plain = s
		return nil
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("text is neither string nor array")
	}
	for _, raw := range parts {
		var seg string
		if err := json.Unmarshal(raw, &seg); err == nil {
			t.Segments = append(t.Segments, seg)
			continue
		}
		var obj struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && obj.Text != "" {
			t.Segments = append(t.Segments, obj.Text)
		}
	}
	return nil
}

// Flatten 归一化为单个字符串；分段以空格连接
func (t RichText) Flatten() string {
	if t.Plain != "" {
		return t.Plain
	}
	return strings.TrimSpace(strings.Join(t.Segments, " "))
}

// exportMessage 频道导出文件里的一条消息
type exportMessage struct {
	ID              int64    `json:"id"`
	Type            string   `json:"type"`
	Date            string   `json:"date"`
	Text            RichText `json:"text"`
	MediaGroupID    string   `json:"media_group_id"`
	Photo           string   `json:"photo"`
	File            string   `json:"file"`
	FileName        string   `json:"file_name"`
	MimeType        string   `json:"mime_type"`
	MediaType       string   `json:"media_type"`
	Thumbnail       string   `json:"thumbnail"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	DurationSeconds int      `json:"duration_seconds"`
}

type exportFile struct {
	Messages []exportMessage `json:"messages"`
}

// ExportSource 以频道历史导出 JSON 文件为来源；用于批量导入与本地拉取
type ExportSource struct {
	path string

	once     sync.Once
	loadErr  error
	messages []*Message // 按 ID 升序
}

func NewExportSource(path string) *ExportSource {
	return &ExportSource{path: path}
}

// FetchSince 返回 ID 大于 afterID 的一页消息
func (s *ExportSource) FetchSince(ctx context.Context, afterID int64, limit int) ([]*Message, error) {
	s.once.Do(s.load)
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	// messages 已升序，二分出起点
	i := sort.Search(len(s.messages), func(i int) bool { return s.messages[i].ID > afterID })
	end := i + limit
	if end > len(s.messages) {
		end = len(s.messages)
	}
	return s.messages[i:end], nil
}

func (s *ExportSource) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.loadErr = fmt.Errorf("read export: %w", err)
		return
	}
	var ef exportFile
	if err := json.Unmarshal(data, &ef); err != nil {
		s.loadErr = fmt.Errorf("parse export: %w", err)
		return
	}
	for _, em := range ef.Messages {
		if em.ID <= 0 || em.Type == "service" {
			continue
		}
		s.messages = append(s.messages, convertExportMessage(em))
	}
	sort.Slice(s.messages, func(i, j int) bool { return s.messages[i].ID < s.messages[j].ID })
}

func convertExportMessage(em exportMessage) *Message {
	m := &Message{
		ID:           em.ID,
		MediaGroupID: em.MediaGroupID,
		Text:         em.Text.Flatten(),
	}
	if ts, err := time.Parse("2006-01-02T15:04:05", em.Date); err == nil {
		m.PublishedAt = ts
	}
	m.Attachment = convertExportAttachment(em)
	return m
}

// convertExportAttachment 将导出文件的媒体字段映射为附件；无媒体返回 nil
func convertExportAttachment(em exportMessage) *Attachment {
	if em.Photo != "" {
		return &Attachment{
			Kind: KindPhoto,
			PhotoVariants: []PhotoVariant{
				{FileRef: em.Photo, Width: em.Width, Height: em.Height},
			},
		}
	}
	if em.File == "" {
		return nil
	}
	att := &Attachment{
		FileRef:         em.File,
		FileName:        em.FileName,
		MimeType:        em.MimeType,
		ThumbnailRef:    em.Thumbnail,
		Width:           em.Width,
		Height:          em.Height,
		DurationSeconds: em.DurationSeconds,
	}
	switch em.MediaType {
	case "video_file", "video_message":
		att.Kind = KindVideo
	case "voice_message":
		att.Kind = KindVoice
	case "audio_file":
		att.Kind = KindAudio
	case "":
		att.Kind = KindDocument
	default:
		// sticker/animation 等交由归一化层判为不支持
		att.Kind = AttachmentKind(em.MediaType)
	}
	return att
}
