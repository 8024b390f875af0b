package ranking

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-insight-system/internal/models"
)

const (
	// DefaultTopK 排序结果的默认截断数量
	DefaultTopK = 10
	// DefaultMinSimilarity 候选项进入排序的最低相似度
	DefaultMinSimilarity = 0.3
	// DefaultMaxViewEntries 摘要视图和详细视图各自的最大条目数
	DefaultMaxViewEntries = 5
)

// Engine 合并与排序引擎
// 对打分后的候选项做过滤、排序、同段落分块合并和截断，产出最终视图
type Engine struct {
	topK             int
	minSimilarity    float64
	maxViewEntries   int
	maxRefinedLength int
	logger           *logrus.Logger
}

// Option 排序引擎的配置选项
type Option func(*Engine)

// WithTopK 设置排序结果的截断数量
func WithTopK(k int) Option {
	return func(e *Engine) {
		e.topK = k
	}
}

// WithMinSimilarity 设置候选项的最低相似度阈值
func WithMinSimilarity(min float64) Option {
	return func(e *Engine) {
		e.minSimilarity = min
	}
}

// WithMaxViewEntries 设置输出视图的最大条目数
func WithMaxViewEntries(n int) Option {
	return func(e *Engine) {
		e.maxViewEntries = n
	}
}

// WithMaxRefinedLength 设置精炼文本的最大长度
func WithMaxRefinedLength(n int) Option {
	return func(e *Engine) {
		e.maxRefinedLength = n
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine 创建一个新的排序引擎
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		topK:             DefaultTopK,
		minSimilarity:    DefaultMinSimilarity,
		maxViewEntries:   DefaultMaxViewEntries,
		maxRefinedLength: DefaultMaxRefinedLength,
		logger:           logrus.New(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Rank 对候选项排序并产出摘要视图和详细视图
// 整个流程：打分过滤、降序排序、同段落分块合并、重排、截断、构建视图
// 排序使用稳定排序，得分相同时保持候选项的输入顺序
func (e *Engine) Rank(queryVector []float32, candidates []models.Candidate) ([]models.SummaryEntry, []models.AnalysisEntry) {
	// 打分并过滤低相似度候选
	var scored []models.Candidate
	for _, c := range candidates {
		c.Score = Score(queryVector, c.Vector)
		if c.Score >= e.minSimilarity {
			scored = append(scored, c)
		}
	}

	sortByScoreDesc(scored)

	merged := e.mergeChunks(scored)
	sortByScoreDesc(merged)

	if len(merged) > e.topK {
		merged = merged[:e.topK]
	}

	summaries := e.buildSummaryView(merged)
	analysis := e.buildAnalysisView(merged)

	e.logger.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"scored":     len(scored),
		"merged":     len(merged),
		"summaries":  len(summaries),
	}).Debug("ranking completed")

	return summaries, analysis
}

// sortByScoreDesc 按得分降序稳定排序
func sortByScoreDesc(candidates []models.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

// mergeChunks 合并同一逻辑段落的多个分块
// 分组键为（文档，标题，页码），分组顺序保持首次出现顺序以保证确定性
// 合并记录继承组内最高得分成员的元数据和得分，内容按分块序号升序拼接
func (e *Engine) mergeChunks(candidates []models.Candidate) []models.Candidate {
	groups := make(map[models.SectionKey][]models.Candidate)
	var order []models.SectionKey

	for _, c := range candidates {
		key := c.Section.Key()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], c)
	}

	merged := make([]models.Candidate, 0, len(order))

	for _, key := range order {
		group := groups[key]

		// 单成员分组原样通过
		if len(group) == 1 {
			merged = append(merged, group[0])
			continue
		}

		// 输入已按得分降序排列，组内第一个成员即最高分成员
		best := group[0]

		// 内容按分块序号升序拼接，而不是按得分
		byChunkID := make([]models.Candidate, len(group))
		copy(byChunkID, group)
		sort.SliceStable(byChunkID, func(i, j int) bool {
			return chunkID(byChunkID[i]) < chunkID(byChunkID[j])
		})

		content := ""
		for i, member := range byChunkID {
			if i > 0 {
				content += " "
			}
			content += member.Text()
		}

		result := best
		result.Section.Content = content
		result.Chunk = nil
		merged = append(merged, result)
	}

	return merged
}

// chunkID 返回候选项的分块序号，整段候选视为0
func chunkID(c models.Candidate) int {
	if c.Chunk == nil {
		return 0
	}
	return c.Chunk.ChunkID
}

// buildSummaryView 构建摘要视图
// 重要性排名是截断后排序列表上的1起始连续排名
func (e *Engine) buildSummaryView(ranked []models.Candidate) []models.SummaryEntry {
	limit := len(ranked)
	if limit > e.maxViewEntries {
		limit = e.maxViewEntries
	}

	summaries := make([]models.SummaryEntry, 0, limit)
	for i := 0; i < limit; i++ {
		c := ranked[i]
		summaries = append(summaries, models.SummaryEntry{
			Document:        c.Section.Document,
			SectionTitle:    c.Section.Title,
			ImportanceRank:  i + 1,
			PageNumber:      c.Section.PageNumber,
			SimilarityScore: roundScore(c.Score),
		})
	}

	return summaries
}

// buildAnalysisView 构建详细视图
func (e *Engine) buildAnalysisView(ranked []models.Candidate) []models.AnalysisEntry {
	limit := len(ranked)
	if limit > e.maxViewEntries {
		limit = e.maxViewEntries
	}

	analysis := make([]models.AnalysisEntry, 0, limit)
	for i := 0; i < limit; i++ {
		c := ranked[i]
		analysis = append(analysis, models.AnalysisEntry{
			Document:    c.Section.Document,
			RefinedText: RefineText(c.Section.Content, e.maxRefinedLength),
			PageNumber:  c.Section.PageNumber,
		})
	}

	return analysis
}

// roundScore 将得分保留4位小数
func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}
