package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-insight-system/internal/document"
	"github.com/fyerfyer/doc-insight-system/internal/embedding"
	"github.com/fyerfyer/doc-insight-system/internal/models"
	"github.com/fyerfyer/doc-insight-system/internal/ranking"
	"github.com/fyerfyer/doc-insight-system/internal/repository"
	"github.com/fyerfyer/doc-insight-system/internal/segment"
)

// AnalysisRequest 一次文档分析的输入
type AnalysisRequest struct {
	Persona     string   // 用户角色描述
	JobToBeDone string   // 任务描述
	Documents   []string // 文档文件路径列表
}

// AnalysisStats 一次分析运行的统计信息
type AnalysisStats struct {
	DocumentCount  int // 成功解析的文档数量
	SectionCount   int // 切分出的段落数量
	CandidateCount int // 参与排序的候选数量
}

// AnalysisService 文档分析服务
// 负责协调文档解析、段落切分、向量嵌入和相关性排序
type AnalysisService struct {
	segmenter    *segment.Segmenter       // 段落切分器
	embedder     embedding.Client         // 嵌入模型客户端
	ranker       *ranking.Engine          // 相关性排序引擎
	repo         repository.RunRepository // 运行记录存储
	chunkSize    int                      // 文本分块大小
	chunkOverlap int                      // 文本分块重叠大小
	batchSize    int                      // 嵌入批处理大小
	maxWorkers   int                      // 嵌入并发工作协程数
	timeout      time.Duration            // 处理超时时间
	logger       *logrus.Logger           // 日志记录器
}

// AnalysisOption 分析服务配置选项
type AnalysisOption func(*AnalysisService)

// NewAnalysisService 创建一个新的文档分析服务
func NewAnalysisService(embedder embedding.Client, opts ...AnalysisOption) *AnalysisService {
	srv := &AnalysisService{
		segmenter:    segment.NewSegmenter(),
		embedder:     embedder,
		ranker:       ranking.NewEngine(),
		chunkSize:    document.DefaultChunkSize,
		chunkOverlap: document.DefaultChunkOverlap,
		batchSize:    16,
		maxWorkers:   4,
		timeout:      time.Minute * 5,
		logger:       logrus.New(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// WithSegmenter 设置段落切分器
func WithSegmenter(segmenter *segment.Segmenter) AnalysisOption {
	return func(s *AnalysisService) {
		if segmenter != nil {
			s.segmenter = segmenter
		}
	}
}

// WithRanker 设置相关性排序引擎
func WithRanker(ranker *ranking.Engine) AnalysisOption {
	return func(s *AnalysisService) {
		if ranker != nil {
			s.ranker = ranker
		}
	}
}

// WithRunRepository 设置运行记录存储
func WithRunRepository(repo repository.RunRepository) AnalysisOption {
	return func(s *AnalysisService) {
		s.repo = repo
	}
}

// WithChunking 设置文本分块参数
func WithChunking(size, overlap int) AnalysisOption {
	return func(s *AnalysisService) {
		if size > 0 {
			s.chunkSize = size
		}
		if overlap >= 0 {
			s.chunkOverlap = overlap
		}
	}
}

// WithBatchSize 设置嵌入批处理大小
func WithBatchSize(size int) AnalysisOption {
	return func(s *AnalysisService) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithMaxWorkers 设置嵌入并发工作协程数
func WithMaxWorkers(workers int) AnalysisOption {
	return func(s *AnalysisService) {
		if workers > 0 {
			s.maxWorkers = workers
		}
	}
}

// WithTimeout 设置处理超时时间
func WithTimeout(timeout time.Duration) AnalysisOption {
	return func(s *AnalysisService) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) AnalysisOption {
	return func(s *AnalysisService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Analyze 执行一次完整的分析流程
// 解析并切分输入文档，对段落和查询做向量嵌入，
// 按与任务的相关性排序后返回结构化结果
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*models.RunOutput, *AnalysisStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if len(req.Documents) == 0 {
		return nil, nil, errors.New("no input documents provided")
	}

	s.logger.WithFields(logrus.Fields{
		"persona":        req.Persona,
		"job_to_be_done": req.JobToBeDone,
		"documents":      len(req.Documents),
	}).Info("Starting document analysis")

	// 解析并切分所有文档
	sections, parsedCount := s.extractSections(req.Documents)
	if parsedCount == 0 {
		return nil, nil, errors.New("no documents could be parsed")
	}

	// 构建嵌入候选
	candidates, texts := s.buildCandidates(sections)

	// 批量嵌入候选文本
	vectors, err := s.embedCandidates(ctx, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to embed sections: %w", err)
	}

	embedded := make([]models.Candidate, 0, len(candidates))
	for i := range candidates {
		if vectors[i] == nil {
			continue
		}
		candidates[i].Vector = vectors[i]
		embedded = append(embedded, candidates[i])
	}

	// 嵌入查询文本
	query := embedding.BuildQuery(req.Persona, req.JobToBeDone)
	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// 相关性排序
	summary, analysis := s.ranker.Rank(queryVector, embedded)

	output := &models.RunOutput{
		Metadata: models.RunMetadata{
			InputDocuments:      documentNames(req.Documents),
			Persona:             req.Persona,
			JobToBeDone:         req.JobToBeDone,
			ProcessingTimestamp: time.Now().Format(time.RFC3339),
		},
		ExtractedSections:  summary,
		SubsectionAnalysis: analysis,
	}

	stats := &AnalysisStats{
		DocumentCount:  parsedCount,
		SectionCount:   len(sections),
		CandidateCount: len(embedded),
	}

	s.logger.WithFields(logrus.Fields{
		"documents":  stats.DocumentCount,
		"sections":   stats.SectionCount,
		"candidates": stats.CandidateCount,
		"results":    len(summary),
	}).Info("Document analysis completed")

	return output, stats, nil
}

// CreateRun 创建一条待处理的运行记录
func (s *AnalysisService) CreateRun(req AnalysisRequest) (*models.AnalysisRun, error) {
	if s.repo == nil {
		return nil, errors.New("run repository not configured")
	}

	run := &models.AnalysisRun{
		ID:            uuid.New().String(),
		Persona:       req.Persona,
		JobToBeDone:   req.JobToBeDone,
		Status:        models.RunStatusPending,
		DocumentCount: len(req.Documents),
	}

	if err := s.repo.Create(run); err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}

	return run, nil
}

// ExecuteRun 执行指定的运行并持久化结果
// 状态流转：pending -> running -> completed/failed
func (s *AnalysisService) ExecuteRun(ctx context.Context, runID string, req AnalysisRequest) (*models.RunOutput, error) {
	if s.repo == nil {
		return nil, errors.New("run repository not configured")
	}

	if err := s.repo.UpdateStatus(runID, models.RunStatusRunning, ""); err != nil {
		return nil, fmt.Errorf("failed to mark run as running: %w", err)
	}

	output, stats, err := s.Analyze(ctx, req)
	if err != nil {
		s.failRun(runID, err.Error())
		return nil, err
	}

	// 更新统计信息
	run, getErr := s.repo.GetByID(runID)
	if getErr == nil {
		run.DocumentCount = stats.DocumentCount
		run.SectionCount = stats.SectionCount
		run.CandidateCount = stats.CandidateCount
		if updateErr := s.repo.Update(run); updateErr != nil {
			s.logger.WithError(updateErr).Warn("Failed to update run statistics")
		}
	}

	payload, err := json.Marshal(output)
	if err != nil {
		s.failRun(runID, fmt.Sprintf("failed to serialize result: %v", err))
		return nil, fmt.Errorf("failed to serialize result: %w", err)
	}

	if err := s.repo.SaveResult(runID, payload); err != nil {
		return nil, fmt.Errorf("failed to save run result: %w", err)
	}

	return output, nil
}

// GetRun 获取运行记录
func (s *AnalysisService) GetRun(runID string) (*models.AnalysisRun, error) {
	if s.repo == nil {
		return nil, errors.New("run repository not configured")
	}
	return s.repo.GetByID(runID)
}

// ListRuns 列出运行记录
func (s *AnalysisService) ListRuns(offset, limit int, status models.RunStatus) ([]*models.AnalysisRun, int64, error) {
	if s.repo == nil {
		return nil, 0, errors.New("run repository not configured")
	}
	return s.repo.List(offset, limit, status)
}

// extractSections 解析所有文档并切分段落
// 单个文档解析失败时跳过并继续处理其余文档
func (s *AnalysisService) extractSections(paths []string) ([]models.Section, int) {
	var sections []models.Section
	parsedCount := 0

	for _, path := range paths {
		docName := filepath.Base(path)

		parser, err := document.ParserFactory(path)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"document": docName,
				"error":    err,
			}).Warn("Skipping document with unsupported type")
			continue
		}

		pages, err := parser.ParsePages(path)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"document": docName,
				"error":    err,
			}).Warn("Skipping document that failed to parse")
			continue
		}
		parsedCount++

		docSections := s.segmenter.Segment(docName, pages)
		sections = append(sections, docSections...)

		s.logger.WithFields(logrus.Fields{
			"document": docName,
			"pages":    len(pages),
			"sections": len(docSections),
		}).Debug("Document segmented")
	}

	return sections, parsedCount
}

// buildCandidates 将段落转换为嵌入候选
// 嵌入文本超过分块阈值的段落拆分为多个带重叠的分块候选
func (s *AnalysisService) buildCandidates(sections []models.Section) ([]models.Candidate, []string) {
	var candidates []models.Candidate
	var texts []string

	for _, section := range sections {
		text := embedding.SectionText(section.Title, section.Content)
		if text == "" {
			continue
		}

		if len(text) <= s.chunkSize {
			candidates = append(candidates, models.Candidate{Section: section})
			texts = append(texts, text)
			continue
		}

		chunks := document.ChunkText(text, s.chunkSize, s.chunkOverlap)
		for i, chunkText := range chunks {
			candidates = append(candidates, models.Candidate{
				Section: section,
				Chunk: &models.Chunk{
					ChunkID:     i,
					Text:        chunkText,
					TotalChunks: len(chunks),
				},
			})
			texts = append(texts, chunkText)
		}
	}

	return candidates, texts
}

// embedCandidates 批量嵌入候选文本
func (s *AnalysisService) embedCandidates(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	processor := embedding.NewBatchProcessor(s.embedder, s.batchSize, s.maxWorkers)
	return processor.Process(ctx, texts)
}

// failRun 将运行标记为失败状态
func (s *AnalysisService) failRun(runID string, errorMsg string) {
	if err := s.repo.UpdateStatus(runID, models.RunStatusFailed, errorMsg); err != nil {
		s.logger.WithFields(logrus.Fields{
			"run_id": runID,
			"error":  err,
		}).Error("Failed to mark run as failed")
	}
}

// documentNames 提取文档路径的文件名部分
func documentNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, path := range paths {
		names[i] = filepath.Base(path)
	}
	return names
}
