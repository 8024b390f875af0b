package models

// Section 从文档中切分出的带标题内容单元
// 由分段引擎产生，排序引擎消费
type Section struct {
	Document   string // 所属文档名（仅文件名，不含路径）
	Title      string // 段落标题（为空时使用默认标题）
	Content    string // 规范化后的段落内容
	PageNumber int    // 段落起始页码（从1开始）
	Level      int    // 标题层级估计（1为最顶层）
}

// SectionKey 段落的逻辑标识
// 同一逻辑段落的多个分块共享同一个键，合并时用作分组依据
type SectionKey struct {
	Document   string
	Title      string
	PageNumber int
}

// Key 返回段落的逻辑标识
func (s *Section) Key() SectionKey {
	return SectionKey{
		Document:   s.Document,
		Title:      s.Title,
		PageNumber: s.PageNumber,
	}
}

// Chunk 段落的子分块
// 仅当段落文本超过嵌入长度阈值时存在
type Chunk struct {
	ChunkID     int    // 分块序号（从0开始）
	Text        string // 分块文本
	TotalChunks int    // 所属段落的分块总数
}

// Candidate 参与相关性排序的候选项
// 可以是整段嵌入的段落，也可以是段落的一个分块
type Candidate struct {
	Section Section   // 所属段落
	Chunk   *Chunk    // 分块信息，nil表示整段嵌入
	Vector  []float32 // 嵌入向量
	Score   float64   // 相似度得分（[0,1]）
}

// Text 返回候选项参与排序的文本
// 分块候选返回分块文本，整段候选返回段落内容
func (c *Candidate) Text() string {
	if c.Chunk != nil {
		return c.Chunk.Text
	}
	return c.Section.Content
}

// SummaryEntry 排序结果的摘要视图条目
// 字段名是对外契约的一部分，不可更改
type SummaryEntry struct {
	Document        string  `json:"document"`         // 文档名
	SectionTitle    string  `json:"section_title"`    // 段落标题
	ImportanceRank  int     `json:"importance_rank"`  // 重要性排名（从1开始，连续无间隔）
	PageNumber      int     `json:"page_number"`      // 页码
	SimilarityScore float64 `json:"similarity_score"` // 相似度得分（保留4位小数）
}

// AnalysisEntry 排序结果的详细视图条目
type AnalysisEntry struct {
	Document    string `json:"document"`     // 文档名
	RefinedText string `json:"refined_text"` // 按句子边界截断的展示文本
	PageNumber  int    `json:"page_number"`  // 页码
}

// RunMetadata 单次分析运行的元数据
type RunMetadata struct {
	InputDocuments      []string `json:"input_documents"`      // 输入文档名列表
	Persona             string   `json:"persona"`              // 用户角色描述
	JobToBeDone         string   `json:"job_to_be_done"`       // 任务描述
	ProcessingTimestamp string   `json:"processing_timestamp"` // 处理时间戳（ISO格式）
}

// RunOutput 单次分析运行的完整输出结构
type RunOutput struct {
	Metadata           RunMetadata     `json:"metadata"`
	ExtractedSections  []SummaryEntry  `json:"extracted_sections"`
	SubsectionAnalysis []AnalysisEntry `json:"subsection_analysis"`
}
