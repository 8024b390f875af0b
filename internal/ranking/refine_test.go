package ranking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRefineTextShortContent 测试不需要截断的内容
func TestRefineTextShortContent(t *testing.T) {
	content := "A short passage that fits comfortably within the limit."
	assert.Equal(t, content, RefineText(content, 500), "不超长的内容应原样返回")
}

// TestRefineTextEmptyContent 测试空内容的占位文本
func TestRefineTextEmptyContent(t *testing.T) {
	assert.Equal(t, emptyContentPlaceholder, RefineText("", 500), "空内容应返回占位文本")
	assert.Equal(t, emptyContentPlaceholder, RefineText("   ", 500), "纯空白内容应返回占位文本")
}

// TestRefineTextSentenceBoundary 测试句子边界截断
func TestRefineTextSentenceBoundary(t *testing.T) {
	// 句末标点位于第399位，超过500*0.7=350的下限，应按完整句子截断
	content := strings.Repeat("a", 399) + ". " + strings.Repeat("b", 300)

	result := RefineText(content, 500)

	assert.Equal(t, 400, len(result), "应在句末标点处截断")
	assert.True(t, strings.HasSuffix(result, "."), "截断结果应以句末标点结尾")
	assert.NotContains(t, result, "b", "句末标点之后的内容不应保留")
}

// TestRefineTextEarlySentenceEnd 测试句末标点过早时回退到单词边界
func TestRefineTextEarlySentenceEnd(t *testing.T) {
	// 唯一的句末标点在第11位，远低于70%下限
	content := "Short intro. " + strings.Repeat("x", 300) + " " + strings.Repeat("y", 300)

	result := RefineText(content, 500)

	assert.True(t, strings.HasSuffix(result, refinedEllipsis), "单词边界截断应附加省略号")
	assert.LessOrEqual(t, len(result), 500+len(refinedEllipsis),
		"结果不应超过最大长度加省略号长度")
}

// TestRefineTextWordBoundary 测试单词边界截断不拆词
func TestRefineTextWordBoundary(t *testing.T) {
	content := strings.TrimSpace(strings.Repeat("word ", 200))

	result := RefineText(content, 500)

	assert.True(t, strings.HasSuffix(result, refinedEllipsis))
	body := strings.TrimSuffix(result, refinedEllipsis)
	for _, w := range strings.Fields(body) {
		assert.Equal(t, "word", w, "截断不应拆开单词")
	}
}

// TestRefineTextNoSpaces 测试无空格内容的硬截断
func TestRefineTextNoSpaces(t *testing.T) {
	content := strings.Repeat("y", 600)

	result := RefineText(content, 500)

	assert.Equal(t, 500+len(refinedEllipsis), len(result), "无空格时应硬截断并附加省略号")
	assert.True(t, strings.HasSuffix(result, refinedEllipsis))
}

// TestRefineTextLengthInvariant 测试长度上界不变式
func TestRefineTextLengthInvariant(t *testing.T) {
	inputs := []string{
		strings.Repeat("z", 1000),
		strings.TrimSpace(strings.Repeat("lorem ipsum dolor sit amet. ", 50)),
		strings.Repeat("no-period-text ", 100),
		"tiny",
	}

	for i, content := range inputs {
		result := RefineText(content, 500)
		assert.LessOrEqual(t, len(result), 500+len(refinedEllipsis),
			"输入 %d 的结果超过长度上界", i)
		assert.NotEmpty(t, result)
	}
}
