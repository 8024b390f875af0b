package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fyerfyer/doc-insight-system/internal/embedding"
	"github.com/fyerfyer/doc-insight-system/internal/models"
	"github.com/fyerfyer/doc-insight-system/internal/repository"
)

// writeTestDocument 创建测试文档文件
func writeTestDocument(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err, "Failed to write test document")
	return path
}

// newTestService 创建使用本地嵌入客户端的分析服务
func newTestService(t *testing.T, opts ...AnalysisOption) *AnalysisService {
	t.Helper()

	client, err := embedding.NewLocalClient()
	require.NoError(t, err, "Failed to create local embedding client")
	return NewAnalysisService(client, opts...)
}

func setupRunRepo(t *testing.T) repository.RunRepository {
	t.Helper()

	dbName := fmt.Sprintf("file:svc_memdb_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")

	err = db.AutoMigrate(&models.AnalysisRun{})
	require.NoError(t, err, "Failed to run migrations")

	return repository.NewRunRepositoryWithDB(db)
}

const travelGuideContent = `INTRODUCTION
This guide covers the essential planning steps for a long trip, including schedules and budgets.
PACKING CHECKLIST
Bring comfortable shoes, a rain jacket, and copies of the important travel documents for everyone.`

const cookingGuideContent = `COOKING BASICS
Start with simple recipes and fresh ingredients, then practice knife skills and seasoning every day.`

func TestAnalysisService_Analyze(t *testing.T) {
	dir := t.TempDir()
	doc1 := writeTestDocument(t, dir, "travel-guide.txt", travelGuideContent)
	doc2 := writeTestDocument(t, dir, "cooking-guide.txt", cookingGuideContent)

	service := newTestService(t)

	output, stats, err := service.Analyze(context.Background(), AnalysisRequest{
		Persona:     "Travel Planner",
		JobToBeDone: "Plan a trip of 4 days for a group of 10 college friends",
		Documents:   []string{doc1, doc2},
	})
	require.NoError(t, err, "Analysis should succeed")
	require.NotNil(t, output)
	require.NotNil(t, stats)

	// 元数据检查
	assert.Equal(t, []string{"travel-guide.txt", "cooking-guide.txt"},
		output.Metadata.InputDocuments, "Input documents should be base names")
	assert.Equal(t, "Travel Planner", output.Metadata.Persona)
	assert.NotEmpty(t, output.Metadata.ProcessingTimestamp)
	_, err = time.Parse(time.RFC3339, output.Metadata.ProcessingTimestamp)
	assert.NoError(t, err, "Timestamp should be in RFC3339 format")

	// 统计信息检查
	assert.Equal(t, 2, stats.DocumentCount, "Both documents should be parsed")
	assert.Equal(t, 3, stats.SectionCount, "Three sections should be extracted")
	assert.GreaterOrEqual(t, stats.CandidateCount, 3)

	// 排序结果检查
	require.NotEmpty(t, output.ExtractedSections, "Ranked sections should not be empty")
	for i, entry := range output.ExtractedSections {
		assert.Equal(t, i+1, entry.ImportanceRank, "Ranks should be dense and start from 1")
		assert.GreaterOrEqual(t, entry.SimilarityScore, 0.0)
		assert.LessOrEqual(t, entry.SimilarityScore, 1.0)
	}

	require.NotEmpty(t, output.SubsectionAnalysis)
	for _, entry := range output.SubsectionAnalysis {
		assert.NotEmpty(t, entry.RefinedText, "Refined text should never be empty")
	}

	// 段落标题应被格式化为标题大小写
	titles := make([]string, 0, len(output.ExtractedSections))
	for _, entry := range output.ExtractedSections {
		titles = append(titles, entry.SectionTitle)
	}
	assert.Contains(t, titles, "Introduction")
}

func TestAnalysisService_AnalyzeSkipsBadDocuments(t *testing.T) {
	dir := t.TempDir()
	goodDoc := writeTestDocument(t, dir, "travel-guide.txt", travelGuideContent)
	missingDoc := filepath.Join(dir, "missing.txt")
	unsupportedDoc := writeTestDocument(t, dir, "image.xyz", "not parsable")

	service := newTestService(t)

	output, stats, err := service.Analyze(context.Background(), AnalysisRequest{
		Persona:     "Travel Planner",
		JobToBeDone: "Plan a trip",
		Documents:   []string{missingDoc, unsupportedDoc, goodDoc},
	})
	require.NoError(t, err, "Analysis should continue past unparsable documents")

	assert.Equal(t, 1, stats.DocumentCount, "Only the parsable document should count")
	// 输入清单保留所有请求的文档名
	assert.Len(t, output.Metadata.InputDocuments, 3)
}

func TestAnalysisService_AnalyzeNoDocuments(t *testing.T) {
	service := newTestService(t)

	_, _, err := service.Analyze(context.Background(), AnalysisRequest{
		Persona:     "Researcher",
		JobToBeDone: "Review literature",
	})
	assert.Error(t, err, "Empty document list should fail")
}

func TestAnalysisService_AnalyzeAllDocumentsFail(t *testing.T) {
	dir := t.TempDir()

	service := newTestService(t)

	_, _, err := service.Analyze(context.Background(), AnalysisRequest{
		Persona:     "Researcher",
		JobToBeDone: "Review literature",
		Documents:   []string{filepath.Join(dir, "missing.txt")},
	})
	assert.Error(t, err, "Analysis should fail when no document can be parsed")
}

func TestAnalysisService_ChunkedSections(t *testing.T) {
	dir := t.TempDir()

	// 构造一个内容远超分块阈值的段落
	longSentence := "The mountain trail offers scenic views and quiet rest areas for hikers of all levels. "
	var content string
	for i := 0; i < 20; i++ {
		content += longSentence
	}
	doc := writeTestDocument(t, dir, "long-guide.txt", "HIKING TRAILS\n"+content)

	service := newTestService(t, WithChunking(256, 32))

	output, stats, err := service.Analyze(context.Background(), AnalysisRequest{
		Persona:     "Hiking Guide",
		JobToBeDone: "Recommend mountain trails for a weekend trip",
		Documents:   []string{doc},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SectionCount, "One logical section expected")
	assert.Greater(t, stats.CandidateCount, 1, "Long section should produce multiple chunks")

	// 分块合并后输出中仍然只有一个逻辑段落
	require.Len(t, output.ExtractedSections, 1, "Chunks of one section should merge into one entry")
	assert.Equal(t, "Hiking Trails", output.ExtractedSections[0].SectionTitle)
}

func TestAnalysisService_ExecuteRun(t *testing.T) {
	dir := t.TempDir()
	doc := writeTestDocument(t, dir, "travel-guide.txt", travelGuideContent)

	repo := setupRunRepo(t)
	service := newTestService(t, WithRunRepository(repo))

	req := AnalysisRequest{
		Persona:     "Travel Planner",
		JobToBeDone: "Plan a trip of 4 days",
		Documents:   []string{doc},
	}

	run, err := service.CreateRun(req)
	require.NoError(t, err, "Run creation should succeed")
	assert.Equal(t, models.RunStatusPending, run.Status)

	output, err := service.ExecuteRun(context.Background(), run.ID, req)
	require.NoError(t, err, "Run execution should succeed")
	require.NotNil(t, output)

	// 验证持久化的运行记录
	saved, err := service.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, saved.Status, "Run should be completed")
	assert.Equal(t, 1, saved.DocumentCount)
	assert.Equal(t, 2, saved.SectionCount)
	require.NotNil(t, saved.CompletedAt)

	var persisted models.RunOutput
	require.NoError(t, json.Unmarshal(saved.Result, &persisted),
		"Persisted result should be valid JSON")
	assert.Equal(t, output.Metadata.Persona, persisted.Metadata.Persona)
	assert.Len(t, persisted.ExtractedSections, len(output.ExtractedSections))
}

func TestAnalysisService_ExecuteRunFailure(t *testing.T) {
	repo := setupRunRepo(t)
	service := newTestService(t, WithRunRepository(repo))

	req := AnalysisRequest{
		Persona:     "Travel Planner",
		JobToBeDone: "Plan a trip",
		Documents:   []string{"/nonexistent/missing.txt"},
	}

	run, err := service.CreateRun(req)
	require.NoError(t, err)

	_, err = service.ExecuteRun(context.Background(), run.ID, req)
	require.Error(t, err, "Execution should fail when nothing can be parsed")

	saved, err := service.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, saved.Status, "Run should be marked failed")
	assert.NotEmpty(t, saved.Error, "Failure reason should be recorded")
}

func TestAnalysisService_ListRuns(t *testing.T) {
	repo := setupRunRepo(t)
	service := newTestService(t, WithRunRepository(repo))

	for i := 0; i < 3; i++ {
		_, err := service.CreateRun(AnalysisRequest{
			Persona:     "Researcher",
			JobToBeDone: fmt.Sprintf("Task %d", i),
			Documents:   []string{"doc.txt"},
		})
		require.NoError(t, err)
	}

	runs, total, err := service.ListRuns(0, 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, runs, 3)
}
