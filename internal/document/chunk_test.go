package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestChunkTextShortInput 测试不需要分块的短文本
func TestChunkTextShortInput(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		chunks := ChunkText("", 512, 50)
		assert.Empty(t, chunks, "空文本应返回空分块列表")
	})

	t.Run("text within chunk size", func(t *testing.T) {
		text := "short text that fits in one chunk"
		chunks := ChunkText(text, 512, 50)
		assert.Equal(t, []string{text}, chunks, "不超过分块大小的文本应原样返回单个分块")
	})

	t.Run("text exactly at chunk size", func(t *testing.T) {
		text := strings.Repeat("x", 512)
		chunks := ChunkText(text, 512, 50)
		assert.Len(t, chunks, 1, "长度恰好等于分块大小的文本应返回单个分块")
	})
}

// TestChunkTextNoSpaces 测试没有空格的长文本的硬切分
func TestChunkTextNoSpaces(t *testing.T) {
	// 600个字符且没有任何空格，无法在单词边界回退
	text := strings.Repeat("A", 600)
	chunks := ChunkText(text, 512, 50)

	assert.Len(t, chunks, 2, "600个无空格字符应切成2块")
	assert.Equal(t, 512, len(chunks[0]), "第一块应为完整窗口大小")
	// 第二块从512-50=462处开始（重叠前移），到文本末尾
	assert.Equal(t, 138, len(chunks[1]), "第二块应覆盖重叠前移后的剩余文本")
}

// TestChunkTextWordBoundary 测试单词边界回退
func TestChunkTextWordBoundary(t *testing.T) {
	// 构造一段带空格的长文本
	word := "abcdefghi "
	text := strings.TrimSpace(strings.Repeat(word, 80)) // 799个字符

	chunks := ChunkText(text, 512, 50)
	assert.Greater(t, len(chunks), 1, "超长文本应产生多个分块")

	for i, chunk := range chunks {
		assert.NotEmpty(t, chunk, "分块 %d 不应为空", i)
		assert.LessOrEqual(t, len(chunk), 512, "分块 %d 不应超过最大长度", i)
		// 有空格可回退时不应截断单词
		for _, w := range strings.Fields(chunk) {
			assert.Equal(t, "abcdefghi", w, "分块 %d 中的单词不应被截断", i)
		}
	}
}

// TestChunkTextNoInventedCharacters 测试分块不会引入新字符
func TestChunkTextNoInventedCharacters(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("the quick brown fox jumps over the lazy dog ", 30))
	chunks := ChunkText(text, 200, 20)

	for i, chunk := range chunks {
		assert.Contains(t, text, chunk, "分块 %d 必须是原文的子串", i)
	}

	// 第一块必须从文本开头开始
	assert.True(t, strings.HasPrefix(text, chunks[0]), "第一块应是原文的前缀")
}

// TestChunkTextOverlap 测试相邻分块的重叠
func TestChunkTextOverlap(t *testing.T) {
	text := strings.Repeat("B", 1200)
	chunks := ChunkText(text, 512, 50)

	// 无空格文本：窗口 [0,512) [462,974) [924,1200)
	assert.Len(t, chunks, 3, "1200个无空格字符应切成3块")
	assert.Equal(t, 512, len(chunks[0]))
	assert.Equal(t, 512, len(chunks[1]))
	assert.Equal(t, 276, len(chunks[2]))
}

// TestChunkTextTailTermination 测试末尾窗口的终止行为
// 前移必须基于未截断的窗口右边界，否则末尾会退化出大量重复的后缀分块
func TestChunkTextTailTermination(t *testing.T) {
	t.Run("tail shorter than window", func(t *testing.T) {
		text := strings.Repeat("D", 600)
		chunks := ChunkText(text, 512, 50)

		require.Len(t, chunks, 2, "末尾窗口取完剩余文本后应立即终止")
		assert.Equal(t, 512, len(chunks[0]))
		assert.Equal(t, 138, len(chunks[1]))
	})

	t.Run("window boundary at text end", func(t *testing.T) {
		// 第二个窗口右边界恰好落在文本末尾：[0,512) [462,974) [924,974)
		text := strings.Repeat("E", 974)
		chunks := ChunkText(text, 512, 50)

		require.Len(t, chunks, 3)
		assert.Equal(t, 512, len(chunks[0]))
		assert.Equal(t, 512, len(chunks[1]))
		assert.Equal(t, 50, len(chunks[2]))
	})
}

// TestChunkTextForwardProgress 测试极端参数下的前进保证
func TestChunkTextForwardProgress(t *testing.T) {
	// 重叠大于等于分块大小时依然必须终止
	text := strings.Repeat("C", 100)
	chunks := ChunkText(text, 10, 20)

	assert.NotEmpty(t, chunks, "即使重叠大于分块大小也应产生分块")
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	assert.GreaterOrEqual(t, total, len(text), "逐字符前进时应覆盖全部文本")
}
