package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCleanText 测试文本清理
func TestCleanText(t *testing.T) {
	t.Run("collapse whitespace", func(t *testing.T) {
		result := CleanText("hello   world\n\tfoo  bar")
		assert.Equal(t, "hello world foo bar", result, "连续空白应折叠为单个空格")
	})

	t.Run("unicode separators", func(t *testing.T) {
		result := CleanText("a\u00a0b\u2028c\u2029d")
		assert.Equal(t, "a b c d", result, "特殊Unicode分隔符应被替换")
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", CleanText(""), "空文本应返回空字符串")
		assert.Equal(t, "", CleanText("   \n\t  "), "纯空白文本应返回空字符串")
	})
}

// TestNormalizePageText 测试页面文本规范化
func TestNormalizePageText(t *testing.T) {
	t.Run("preserve line structure", func(t *testing.T) {
		result := NormalizePageText("Title Line\nbody text here")
		assert.Equal(t, "Title Line\nbody text here", result, "换行结构应被保留")
	})

	t.Run("normalize line endings", func(t *testing.T) {
		result := NormalizePageText("line1\r\nline2\rline3")
		assert.Equal(t, "line1\nline2\nline3", result, "不同换行符应统一为\\n")
	})

	t.Run("unicode line separators become newlines", func(t *testing.T) {
		result := NormalizePageText("line1\u2028line2\u2029line3")
		assert.Equal(t, "line1\nline2\nline3", result, "Unicode行分隔符应转换为换行")
	})

	t.Run("trim surrounding whitespace", func(t *testing.T) {
		result := NormalizePageText("\n\n  content  \n\n")
		assert.Equal(t, "content", result, "首尾空白应被移除")
	})
}

// TestFormatSectionTitle 测试标题格式化
func TestFormatSectionTitle(t *testing.T) {
	t.Run("empty title", func(t *testing.T) {
		assert.Equal(t, "Untitled Section", FormatSectionTitle(""), "空标题应使用默认值")
		assert.Equal(t, "Untitled Section", FormatSectionTitle("   "), "纯空白标题应使用默认值")
	})

	t.Run("all caps to title case", func(t *testing.T) {
		assert.Equal(t, "Introduction And Overview", FormatSectionTitle("INTRODUCTION AND OVERVIEW"),
			"全大写标题应转换为词首大写")
	})

	t.Run("mixed case unchanged", func(t *testing.T) {
		assert.Equal(t, "Getting Started", FormatSectionTitle("Getting Started"),
			"混合大小写标题应保持原样")
	})

	t.Run("whitespace collapsed", func(t *testing.T) {
		assert.Equal(t, "1. System Design", FormatSectionTitle("1.   System\nDesign"),
			"标题内的空白应被折叠")
	})

	t.Run("numeric only title unchanged", func(t *testing.T) {
		// 没有字母时不触发大写转换
		assert.Equal(t, "2024", FormatSectionTitle("2024"), "纯数字标题应保持原样")
	})
}
