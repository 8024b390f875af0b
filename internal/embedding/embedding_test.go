package embedding

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-insight-system/internal/cache"
)

// countingClient 记录调用次数的测试客户端
type countingClient struct {
	mu         sync.Mutex
	embedCalls int
	batchCalls int
	dimensions int
}

func newCountingClient() *countingClient {
	return &countingClient{dimensions: 4}
}

func (c *countingClient) Name() string { return "counting" }

func (c *countingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	c.embedCalls++
	c.mu.Unlock()
	return c.vectorFor(text), nil
}

func (c *countingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.batchCalls++
	c.mu.Unlock()

	result := make([][]float32, len(texts))
	for i, text := range texts {
		if text != "" {
			result[i] = c.vectorFor(text)
		}
	}
	return result, nil
}

func (c *countingClient) vectorFor(text string) []float32 {
	v := make([]float32, c.dimensions)
	v[0] = float32(len(text))
	return v
}

// TestLocalClientDeterminism 测试本地客户端的确定性
func TestLocalClientDeterminism(t *testing.T) {
	client, err := NewLocalClient()
	require.NoError(t, err)

	v1, err := client.Embed(context.Background(), "some document section text")
	require.NoError(t, err)
	v2, err := client.Embed(context.Background(), "some document section text")
	require.NoError(t, err)

	assert.Equal(t, v1, v2, "同一文本应产生相同向量")
	assert.Len(t, v1, DefaultLocalDimensions, "向量维度应为默认维度")
}

// TestLocalClientNormalization 测试本地客户端输出归一化向量
func TestLocalClientNormalization(t *testing.T) {
	client, err := NewLocalClient(WithDimensions(64))
	require.NoError(t, err)

	vector, err := client.Embed(context.Background(), "normalized vector output check")
	require.NoError(t, err)
	require.Len(t, vector, 64)

	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-5, "向量长度应为1")
}

// TestLocalClientSimilarTexts 测试词汇重叠文本的相似度
func TestLocalClientSimilarTexts(t *testing.T) {
	client, err := NewLocalClient()
	require.NoError(t, err)

	base, err := client.Embed(context.Background(), "travel guide for mountain hiking")
	require.NoError(t, err)
	similar, err := client.Embed(context.Background(), "travel guide for mountain hiking trips")
	require.NoError(t, err)
	unrelated, err := client.Embed(context.Background(), "quarterly financial revenue report")
	require.NoError(t, err)

	simScore := dotProduct32(base, similar)
	unrelScore := dotProduct32(base, unrelated)
	assert.Greater(t, simScore, unrelScore, "词汇重叠的文本应更相似")
}

func dotProduct32(a, b []float32) float32 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

// TestLocalClientEmbedBatch 测试本地客户端的批量嵌入
func TestLocalClientEmbedBatch(t *testing.T) {
	client, err := NewLocalClient()
	require.NoError(t, err)

	vectors, err := client.EmbedBatch(context.Background(), []string{"first", "", "third"})
	require.NoError(t, err)

	require.Len(t, vectors, 3)
	assert.NotNil(t, vectors[0])
	assert.Nil(t, vectors[1], "空文本对应的结果位置应为nil")
	assert.NotNil(t, vectors[2])
}

// TestBuildQuery 测试查询文本构建
func TestBuildQuery(t *testing.T) {
	query := BuildQuery("Travel Planner", "Plan a trip of 4 days for college friends")

	assert.Equal(t,
		"User Profile: Travel Planner. Task Objective: Plan a trip of 4 days for college friends. "+
			"Looking for relevant information to help with: Plan a trip of 4 days for college friends",
		query, "查询文本格式不符")
}

// TestSectionText 测试段落嵌入文本构建
func TestSectionText(t *testing.T) {
	t.Run("title and content", func(t *testing.T) {
		text := SectionText("Introduction", "body content here")
		assert.Equal(t, "Introduction. Introduction: body content here", text,
			"标题应重复出现以提高权重")
	})

	t.Run("title only", func(t *testing.T) {
		assert.Equal(t, "Introduction", SectionText("Introduction", ""))
	})

	t.Run("content only", func(t *testing.T) {
		assert.Equal(t, "body content", SectionText("", "body content"))
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Equal(t, "", SectionText("", ""))
	})

	t.Run("whitespace collapsed", func(t *testing.T) {
		text := SectionText("  Some\nTitle  ", "body\n\ncontent")
		assert.Equal(t, "Some Title. Some Title: body content", text)
	})
}

// TestBatchProcessor 测试批处理器
func TestBatchProcessor(t *testing.T) {
	t.Run("order preserved across batches", func(t *testing.T) {
		client := newCountingClient()
		processor := NewBatchProcessor(client, 2, 2)

		texts := make([]string, 7)
		for i := range texts {
			texts[i] = fmt.Sprintf("text-%d", i)
		}

		vectors, err := processor.Process(context.Background(), texts)
		require.NoError(t, err)
		assert.Len(t, vectors, 7, "结果数量应与输入一致")
	})

	t.Run("empty texts keep positions", func(t *testing.T) {
		client := newCountingClient()
		processor := NewBatchProcessor(client, 4, 2)

		vectors, err := processor.Process(context.Background(), []string{"a", "", "c"})
		require.NoError(t, err)

		require.Len(t, vectors, 3)
		assert.NotNil(t, vectors[0])
		assert.Nil(t, vectors[1], "空文本的位置应为nil")
		assert.NotNil(t, vectors[2])
	})

	t.Run("empty input", func(t *testing.T) {
		client := newCountingClient()
		processor := NewBatchProcessor(client, 4, 2)

		vectors, err := processor.Process(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, vectors)
	})
}

// TestCachedClient 测试缓存装饰器
func TestCachedClient(t *testing.T) {
	t.Run("repeated embed hits cache", func(t *testing.T) {
		inner := newCountingClient()
		store, err := cache.NewMemoryCache(cache.DefaultConfig())
		require.NoError(t, err)

		cached := NewCachedClient(inner, store, 0, nil)

		v1, err := cached.Embed(context.Background(), "repeat me")
		require.NoError(t, err)
		v2, err := cached.Embed(context.Background(), "repeat me")
		require.NoError(t, err)

		assert.Equal(t, v1, v2)
		assert.Equal(t, 1, inner.embedCalls, "第二次请求应命中缓存")
	})

	t.Run("batch only requests misses", func(t *testing.T) {
		inner := newCountingClient()
		store, err := cache.NewMemoryCache(cache.DefaultConfig())
		require.NoError(t, err)

		cached := NewCachedClient(inner, store, 0, nil)

		// 先缓存一条
		_, err = cached.Embed(context.Background(), "already cached")
		require.NoError(t, err)

		vectors, err := cached.EmbedBatch(context.Background(),
			[]string{"already cached", "new text one", "new text two"})
		require.NoError(t, err)

		require.Len(t, vectors, 3)
		for i, v := range vectors {
			assert.NotNil(t, v, "位置 %d 的向量不应为nil", i)
		}
		assert.Equal(t, 1, inner.batchCalls, "批量请求只应包含未命中的文本")
	})

	t.Run("name passthrough", func(t *testing.T) {
		inner := newCountingClient()
		store, err := cache.NewMemoryCache(cache.DefaultConfig())
		require.NoError(t, err)

		cached := NewCachedClient(inner, store, 0, nil)
		assert.Equal(t, "counting", cached.Name())
	})
}
