package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-insight-system/internal/document"
)

// TestSegmentSinglePage 测试单页的标题切分
func TestSegmentSinglePage(t *testing.T) {
	segmenter := NewSegmenter()

	pages := []document.Page{
		{
			Number: 1,
			Text: "INTRODUCTION\n" +
				"This system handles analysis for large collections of reports.\n" +
				"It produces ranked access to relevant passages.",
		},
	}

	sections := segmenter.Segment("report.pdf", pages)

	require.Len(t, sections, 1, "单个标题应产生单个段落")
	assert.Equal(t, "Introduction", sections[0].Title, "全大写标题应被转换为词首大写")
	assert.Equal(t, "report.pdf", sections[0].Document)
	assert.Equal(t, 1, sections[0].PageNumber)
	assert.Equal(t, 1, sections[0].Level, "全大写标题应为顶级")
	assert.Contains(t, sections[0].Content, "ranked access")
	assert.NotContains(t, sections[0].Content, "\n", "段落内容应被折叠为单行")
}

// TestSegmentMultipleHeadings 测试同一页上的多个标题
func TestSegmentMultipleHeadings(t *testing.T) {
	segmenter := NewSegmenter()

	pages := []document.Page{
		{
			Number: 1,
			Text: "1. Overview\n" +
				"content line one with sufficient length to pass the minimum threshold for sections.\n" +
				"2. Details\n" +
				"more content follows here with sufficient length to pass the minimum threshold too.",
		},
	}

	sections := segmenter.Segment("guide.pdf", pages)

	require.Len(t, sections, 2, "两个标题应产生两个段落")
	assert.Equal(t, "1. Overview", sections[0].Title)
	assert.Equal(t, 1, sections[0].Level, "单级数字编号应为第1级")
	assert.Contains(t, sections[0].Content, "content line one")
	assert.NotContains(t, sections[0].Content, "more content", "第一个段落不应包含第二个段落的内容")

	assert.Equal(t, "2. Details", sections[1].Title)
	assert.Contains(t, sections[1].Content, "more content follows")
}

// TestSegmentDefaultSection 测试没有标题的页面
func TestSegmentDefaultSection(t *testing.T) {
	segmenter := NewSegmenter()

	pages := []document.Page{
		{
			Number: 3,
			Text:   "just some plain body text without any heading structure at all, going on long enough.",
		},
	}

	sections := segmenter.Segment("notes.txt", pages)

	require.Len(t, sections, 1, "无标题的页面应产生默认段落")
	assert.Equal(t, "Content from Page 3", sections[0].Title, "默认段落标题应带页码")
	assert.Equal(t, 3, sections[0].PageNumber)
	assert.Equal(t, 1, sections[0].Level)
}

// TestSegmentContentSpansPages 测试段落内容跨页
func TestSegmentContentSpansPages(t *testing.T) {
	segmenter := NewSegmenter()

	pages := []document.Page{
		{
			Number: 1,
			Text: "INTRODUCTION\n" +
				"first page body text that belongs with this heading material.",
		},
		{
			Number: 2,
			Text:   "continuation body text on a later page without any new heading present here.",
		},
	}

	sections := segmenter.Segment("report.pdf", pages)

	require.Len(t, sections, 1, "跨页内容应并入同一段落")
	assert.Equal(t, "Introduction", sections[0].Title)
	assert.Equal(t, 1, sections[0].PageNumber, "段落页码应为标题所在页")
	assert.Contains(t, sections[0].Content, "first page body")
	assert.Contains(t, sections[0].Content, "continuation body")
}

// TestSegmentDropsShortSections 测试过短段落被丢弃
func TestSegmentDropsShortSections(t *testing.T) {
	segmenter := NewSegmenter()

	pages := []document.Page{
		{
			Number: 1,
			Text: "INTRODUCTION\n" +
				"tiny bit\n" +
				"CONCLUSION\n" +
				"closing remarks section with plenty of body text so that it survives filtering.",
		},
	}

	sections := segmenter.Segment("report.pdf", pages)

	require.Len(t, sections, 1, "内容过短的段落应被丢弃")
	assert.Equal(t, "Conclusion", sections[0].Title)
}

// TestSegmentMinSectionLengthOption 测试最小段落长度选项
func TestSegmentMinSectionLengthOption(t *testing.T) {
	segmenter := NewSegmenter(WithMinSectionLength(5))

	pages := []document.Page{
		{
			Number: 1,
			Text: "INTRODUCTION\n" +
				"tiny bit\n" +
				"CONCLUSION\n" +
				"closing remarks section with plenty of body text so that it survives filtering.",
		},
	}

	sections := segmenter.Segment("report.pdf", pages)
	assert.Len(t, sections, 2, "降低长度阈值后短段落也应保留")
}

// TestSegmentMinConfidenceOption 测试置信度阈值选项
func TestSegmentMinConfidenceOption(t *testing.T) {
	segmenter := NewSegmenter(WithMinConfidence(100))

	pages := []document.Page{
		{
			Number: 1,
			Text: "INTRODUCTION\n" +
				"body text that would normally attach to the heading above if it qualified.",
		},
	}

	sections := segmenter.Segment("report.pdf", pages)

	require.Len(t, sections, 1)
	assert.Equal(t, "Content from Page 1", sections[0].Title, "阈值过高时整页应作为默认段落")
}

// TestSegmentEmptyInput 测试空输入
func TestSegmentEmptyInput(t *testing.T) {
	segmenter := NewSegmenter()

	assert.Empty(t, segmenter.Segment("empty.pdf", nil), "空页面序列应产生空结果")
	assert.Empty(t, segmenter.Segment("empty.pdf", []document.Page{}), "空页面序列应产生空结果")
}

// TestEstimateHeadingLevel 测试标题层级估算
func TestEstimateHeadingLevel(t *testing.T) {
	cases := []struct {
		heading string
		want    int
	}{
		{"1. Introduction", 1},
		{"2.1 System Design", 1},
		{"3.2.1 Subcomponent", 2},
		{"INTRODUCTION", 1},
		{"A. Background", 2},
		{"Getting Started", 2},
	}

	for _, tc := range cases {
		t.Run(tc.heading, func(t *testing.T) {
			assert.Equal(t, tc.want, estimateHeadingLevel(tc.heading), "标题 %q 的层级不符", tc.heading)
		})
	}
}

// TestSegmentLargeDocument 测试较大文档的切分稳定性
func TestSegmentLargeDocument(t *testing.T) {
	segmenter := NewSegmenter()

	var pages []document.Page
	for i := 1; i <= 20; i++ {
		pages = append(pages, document.Page{
			Number: i,
			Text: "SECTION HEADING\n" +
				strings.Repeat("body text for this page that carries enough material to be kept. ", 3),
		})
	}

	sections := segmenter.Segment("big.pdf", pages)

	require.NotEmpty(t, sections)
	for i, sec := range sections {
		assert.Equal(t, "Section Heading", sec.Title, "段落 %d 的标题不符", i)
		assert.GreaterOrEqual(t, len(sec.Content), 50, "段落 %d 的内容长度不足", i)
	}
}
