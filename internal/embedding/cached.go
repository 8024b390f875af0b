package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-insight-system/internal/cache"
)

// DefaultCacheTTL 嵌入向量的默认缓存时长
// 同一模型对同一文本的嵌入是确定的，可以长期缓存
const DefaultCacheTTL = 24 * time.Hour

// CachedClient 带缓存的嵌入客户端装饰器
// 以文本内容的哈希为键缓存向量，重复文本不再请求底层客户端
type CachedClient struct {
	inner  Client
	store  cache.Cache
	ttl    time.Duration
	logger *logrus.Logger
}

// NewCachedClient 包装一个嵌入客户端，为其添加缓存
func NewCachedClient(inner Client, store cache.Cache, ttl time.Duration, logger *logrus.Logger) *CachedClient {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &CachedClient{
		inner:  inner,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Name 返回底层模型名称
func (c *CachedClient) Name() string {
	return c.inner.Name()
}

// Embed 生成单条文本的向量表示，优先使用缓存
func (c *CachedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, NewEmbeddingError(ErrCodeEmptyInput, ErrMsgEmptyInput)
	}

	key := c.cacheKey(text)

	if vector, ok := c.lookup(key); ok {
		return vector, nil
	}

	vector, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.save(key, vector)
	return vector, nil
}

// EmbedBatch 批量生成文本的向量表示
// 命中缓存的文本直接返回，未命中的文本合并为一次底层批量请求
func (c *CachedClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	result := make([][]float32, len(texts))
	var missTexts []string
	var missIndices []int

	for i, text := range texts {
		if text == "" {
			continue
		}

		if vector, ok := c.lookup(c.cacheKey(text)); ok {
			result[i] = vector
			continue
		}

		missTexts = append(missTexts, text)
		missIndices = append(missIndices, i)
	}

	if len(missTexts) == 0 {
		return result, nil
	}

	vectors, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for j, idx := range missIndices {
		if j >= len(vectors) {
			break
		}
		result[idx] = vectors[j]
		c.save(c.cacheKey(texts[idx]), vectors[j])
	}

	c.logger.WithFields(logrus.Fields{
		"total":  len(texts),
		"misses": len(missTexts),
	}).Debug("embedding batch cache lookup")

	return result, nil
}

// cacheKey 生成文本的缓存键
// 键包含模型名称，不同模型的向量互不干扰
func (c *CachedClient) cacheKey(text string) string {
	digest := sha256.Sum256([]byte(text))
	return cache.GenerateCacheKey("embedding", c.inner.Name(), hex.EncodeToString(digest[:]))
}

// lookup 从缓存中查找向量
func (c *CachedClient) lookup(key string) ([]float32, bool) {
	data, found, err := c.store.Get(key)
	if err != nil || !found {
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil {
		return nil, false
	}
	return vector, true
}

// save 将向量写入缓存，写入失败只记录日志
func (c *CachedClient) save(key string, vector []float32) {
	data, err := json.Marshal(vector)
	if err != nil {
		return
	}

	if err := c.store.Set(key, data, c.ttl); err != nil {
		c.logger.WithError(err).Warn("failed to cache embedding vector")
	}
}
