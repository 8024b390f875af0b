package ranking

import "strings"

const (
	// DefaultMaxRefinedLength 精炼文本的默认最大长度
	DefaultMaxRefinedLength = 500

	// refinedEllipsis 截断标记
	refinedEllipsis = "..."

	// emptyContentPlaceholder 空内容的占位文本
	emptyContentPlaceholder = "No content available"

	// sentenceBoundaryRatio 句子边界截断的最小位置比例
	// 句末标点的位置达到最大长度的该比例时，按完整句子截断
	sentenceBoundaryRatio = 0.7
)

// RefineText 生成长度受限的展示文本
// 优先在句子边界截断以保留完整句子，否则回退到单词边界并附加省略号
func RefineText(content string, maxLength int) string {
	if strings.TrimSpace(content) == "" {
		return emptyContentPlaceholder
	}

	if len(content) <= maxLength {
		return content
	}

	prefix := content[:maxLength]

	// 查找前缀中最后一个句末标点
	lastSentenceEnd := -1
	for i := len(prefix) - 1; i >= 0; i-- {
		switch prefix[i] {
		case '.', '!', '?':
			lastSentenceEnd = i
		}
		if lastSentenceEnd >= 0 {
			break
		}
	}

	// 句末标点足够靠后时保留完整句子
	if lastSentenceEnd >= int(float64(maxLength)*sentenceBoundaryRatio) {
		return prefix[:lastSentenceEnd+1]
	}

	// 回退到最后一个空格，避免截断单词
	if lastSpace := strings.LastIndex(prefix, " "); lastSpace > 0 {
		return prefix[:lastSpace] + refinedEllipsis
	}

	// 没有空格时硬截断
	return prefix + refinedEllipsis
}
