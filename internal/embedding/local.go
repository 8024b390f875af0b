package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// DefaultLocalDimensions 本地嵌入客户端的默认向量维度
const DefaultLocalDimensions = 384

// LocalClient 本地确定性嵌入客户端
// 基于词袋特征哈希生成固定维度的归一化向量，不依赖任何外部服务
// 同一文本总是产生相同向量，适用于离线批处理和无API密钥的场景
// 语义质量不及真实嵌入模型，词汇重叠度高的文本会获得更高相似度
type LocalClient struct {
	dimensions int
}

// NewLocalClient 创建本地嵌入客户端
// 选项应用在零值配置上，维度未显式指定时使用本地默认值，
// 不继承远程模型的维度默认值
func NewLocalClient(opts ...Option) (Client, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultLocalDimensions
	}

	return &LocalClient{dimensions: dimensions}, nil
}

// Name 返回模型名称
func (c *LocalClient) Name() string {
	return "local-hash"
}

// Embed 生成单条文本的向量表示
func (c *LocalClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, NewEmbeddingError(ErrCodeEmptyInput, ErrMsgEmptyInput)
	}

	select {
	case <-ctx.Done():
		return nil, NewEmbeddingError(ErrCodeTimeout, ctx.Err().Error())
	default:
	}

	vector := make([]float32, c.dimensions)

	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		sum := h.Sum32()

		// 哈希低位决定维度位置，最高位决定符号
		index := int(sum % uint32(c.dimensions))
		if sum&0x80000000 != 0 {
			vector[index] -= 1
		} else {
			vector[index] += 1
		}
	}

	return normalizeVector(vector), nil
}

// EmbedBatch 批量生成文本的向量表示
// 空文本对应的结果位置为nil
func (c *LocalClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		if text == "" {
			continue
		}

		vector, err := c.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		result[i] = vector
	}

	return result, nil
}

// normalizeVector 归一化向量（使其长度为1）
func normalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}

	norm := math.Sqrt(sum)
	if norm == 0 {
		return v // 零向量无法归一化
	}

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = float32(float64(val) / norm)
	}
	return result
}

// 注册本地嵌入客户端
func init() {
	RegisterClient("local", NewLocalClient)
}
