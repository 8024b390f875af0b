package segment

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-insight-system/internal/document"
	"github.com/fyerfyer/doc-insight-system/internal/models"
)

// DefaultMinSectionLength 段落内容的最小字符数，低于该长度的段落在后处理中被丢弃
const DefaultMinSectionLength = 50

// numberedHeadingPattern 匹配数字编号标题的前缀
var numberedHeadingPattern = regexp.MustCompile(`^(\d+\.)+`)

// letterEnumPattern 匹配字母编号标题的前缀
var letterEnumPattern = regexp.MustCompile(`^[A-Z]\.\s`)

// Segmenter 段落切分引擎
// 对页面文本做单次前向扫描，利用标题分类器将文档切分为带标题的段落序列
type Segmenter struct {
	classifier       *Classifier
	minConfidence    int
	minSectionLength int
	logger           *logrus.Logger
}

// Option 切分引擎的配置选项
type Option func(*Segmenter)

// WithMinConfidence 设置标题判定的置信度阈值
func WithMinConfidence(confidence int) Option {
	return func(s *Segmenter) {
		s.minConfidence = confidence
	}
}

// WithMinSectionLength 设置段落内容的最小长度
func WithMinSectionLength(length int) Option {
	return func(s *Segmenter) {
		s.minSectionLength = length
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Segmenter) {
		s.logger = logger
	}
}

// NewSegmenter 创建一个新的段落切分引擎
func NewSegmenter(opts ...Option) *Segmenter {
	s := &Segmenter{
		classifier:       NewClassifier(),
		minConfidence:    DefaultMinConfidence,
		minSectionLength: DefaultMinSectionLength,
		logger:           logrus.New(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Segment 将文档的页面序列切分为段落序列
// 整个过程只携带两个跨页状态：当前未完成的段落和本页的内容缓冲
// 段落的内容可以跨越多页，只有遇到下一个标题或文档结束时才会被输出
func (s *Segmenter) Segment(docName string, pages []document.Page) []models.Section {
	var sections []models.Section
	var current *models.Section

	for _, page := range pages {
		lines := strings.Split(page.Text, "\n")
		headingLines := s.qualifyingHeadings(lines)

		if len(headingLines) == 0 {
			// 本页没有合格标题，整页作为内容处理
			if current != nil {
				current.Content += " " + page.Text
			} else {
				current = &models.Section{
					Document:   docName,
					Title:      fmt.Sprintf("Content from Page %d", page.Number),
					Content:    page.Text,
					PageNumber: page.Number,
					Level:      1,
				}
			}
			continue
		}

		var contentBuffer []string

		for _, raw := range lines {
			line := strings.TrimSpace(raw)

			if _, isHeading := headingLines[line]; isHeading {
				// 遇到新标题时输出当前段落
				// 刚开出的空段落不会被过早输出
				if current != nil && len(contentBuffer) > 0 {
					current.Content += " " + strings.Join(contentBuffer, " ")
					sections = append(sections, *current)
				}

				current = &models.Section{
					Document:   docName,
					Title:      line,
					PageNumber: page.Number,
					Level:      estimateHeadingLevel(line),
				}
				contentBuffer = nil
			} else if line != "" {
				contentBuffer = append(contentBuffer, line)
			}
		}

		// 页尾残留的内容并入当前段落，但不立即输出
		if current != nil && len(contentBuffer) > 0 {
			current.Content += " " + strings.Join(contentBuffer, " ")
		}
	}

	// 文档结束时输出最后一个段落
	if current != nil {
		sections = append(sections, *current)
	}

	processed := s.postProcess(sections)

	s.logger.WithFields(logrus.Fields{
		"document":      docName,
		"page_count":    len(pages),
		"raw_sections":  len(sections),
		"kept_sections": len(processed),
	}).Debug("document segmentation completed")

	return processed
}

// qualifyingHeadings 找出页面中所有达到置信度阈值的标题行
// 返回以行文本为键的集合，供逐行扫描时做成员判断
func (s *Segmenter) qualifyingHeadings(lines []string) map[string]int {
	headings := make(map[string]int)

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		confidence := s.classifier.Confidence(line)
		if confidence >= s.minConfidence {
			headings[line] = confidence
		}
	}

	return headings
}

// postProcess 对切分结果做后处理
// 丢弃内容过短的段落，并规范化保留段落的标题和内容
func (s *Segmenter) postProcess(sections []models.Section) []models.Section {
	var processed []models.Section

	for _, section := range sections {
		if utf8.RuneCountInString(strings.TrimSpace(section.Content)) < s.minSectionLength {
			continue
		}

		section.Content = document.CleanText(section.Content)
		section.Title = document.FormatSectionTitle(section.Title)
		processed = append(processed, section)
	}

	return processed
}

// estimateHeadingLevel 估算标题的层级深度
// 这是对大纲层级的启发式近似，不保证层级嵌套的一致性
func estimateHeadingLevel(heading string) int {
	// 数字编号标题按点号数量定级，"2.1 Foo"为第1级，"3.2.1 Foo"为第2级
	if numberedHeadingPattern.MatchString(heading) {
		return strings.Count(heading, ".")
	}

	// 全大写标题通常是顶级
	if isAllUpper(heading) {
		return 1
	}

	// 字母编号标题
	if letterEnumPattern.MatchString(heading) {
		return 2
	}

	return 2
}
