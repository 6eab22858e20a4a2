package hashtag

import (
	"regexp"
	"strings"

	"github.com/d60-Lab/tagstream/internal/source"
)

// tagPattern 匹配 # 加一个或多个词字符；\w 不含西里尔等字母，需显式放开
var tagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// Extractor 从消息文本提取识别的标签；纯函数，无 I/O
type Extractor struct {
	// canonical 小写形式 -> 词表原始写法
	canonical map[string]string
	order     []string
}

// NewExtractor 以固定词表构建；词表为空时仅实体模式可用
func NewExtractor(vocabulary []string) *Extractor {
	e := &Extractor{canonical: make(map[string]string, len(vocabulary))}
	for _, tag := range vocabulary {
		key := strings.ToLower(tag)
		if _, ok := e.canonical[key]; ok {
			continue
		}
		e.canonical[key] = tag
		e.order = append(e.order, tag)
	}
	return e
}

// Vocabulary 返回词表的规范写法（去重后，保持配置顺序）
func (e *Extractor) Vocabulary() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// FromEntities 实体驱动模式：只信任来源标注为 hashtag 的区间。
// 区间偏移按 rune 计；保留原文大小写，按小写去重并保持首次出现顺序。
func (e *Extractor) FromEntities(text string, entities []source.Entity) []string {
	if text == "" || len(entities) == 0 {
		return nil
	}
	runes := []rune(text)
	var out []string
	seen := make(map[string]struct{})
	for _, ent := range entities {
		if ent.Type != source.EntityHashtag {
			continue
		}
		if ent.Offset < 0 || ent.Length <= 0 || ent.Offset+ent.Length > len(runes) {
			continue
		}
		tag := string(runes[ent.Offset : ent.Offset+ent.Length])
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// FromText 固定词表正则模式：扫描 #词 并与词表大小写无关求交，
// 输出词表的规范写法。用于无实体元数据的批量历史导入。
func (e *Extractor) FromText(text string) []string {
	if text == "" || len(e.canonical) == 0 {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, match := range tagPattern.FindAllString(text, -1) {
		key := strings.ToLower(match)
		canon, ok := e.canonical[key]
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, canon)
	}
	return out
}

// Extract 有实体标注走实体模式，否则退回词表模式
func (e *Extractor) Extract(text string, entities []source.Entity) []string {
	if len(entities) > 0 {
		return e.FromEntities(text, entities)
	}
	return e.FromText(text)
}
