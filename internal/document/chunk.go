package document

import "strings"

const (
	// DefaultChunkSize 默认分块大小（字符数）
	// 与嵌入模型的有效上下文长度对应
	DefaultChunkSize = 512
	// DefaultChunkOverlap 默认分块重叠大小（字符数）
	DefaultChunkOverlap = 50
)

// ChunkText 将长文本分割成带重叠的固定大小窗口
// 窗口右边界落在单词内部时回退到窗口内最近的空格处；
// 每次推进至少1个字符，保证即使找不到空格也不会死循环。
// 文本长度不超过maxChunkSize时原样返回单个分块。
func ChunkText(text string, maxChunkSize int, overlap int) []string {
	if text == "" {
		return nil
	}
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}
	if len(text) <= maxChunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + maxChunkSize

		if end < len(text) {
			// 尝试在空格处断开，避免截断单词
			if lastSpace := strings.LastIndex(text[start:end], " "); lastSpace > 0 {
				end = start + lastSpace
			}
		}

		sliceEnd := end
		if sliceEnd > len(text) {
			sliceEnd = len(text)
		}
		if chunk := strings.TrimSpace(text[start:sliceEnd]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		// 按未截断的窗口右边界带重叠前移，至少前进1个字符；
		// 末尾窗口的边界越过文本末尾，使循环在取完最后一块后终止
		next := end - overlap
		if next < start+1 {
			next = start + 1
		}
		start = next
	}

	return chunks
}
