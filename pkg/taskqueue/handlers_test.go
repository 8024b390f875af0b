package taskqueue

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-insight-system/pkg/storage"
)

// recordingExecutor 记录调用参数的执行函数
type recordingExecutor struct {
	called    bool
	payload   *AnalysisRunPayload
	documents []string
	err       error
}

func (r *recordingExecutor) execute(ctx context.Context, payload *AnalysisRunPayload, documents []string) error {
	r.called = true
	r.payload = payload
	r.documents = documents
	return r.err
}

func makeTask(t *testing.T, payload AnalysisRunPayload) *Task {
	t.Helper()

	data, err := MarshalPayload(payload)
	require.NoError(t, err)

	return &Task{
		ID:      "task-1",
		Type:    TaskAnalysisRun,
		RunID:   payload.RunID,
		Status:  StatusPending,
		Payload: data,
	}
}

// TestAnalysisHandler_LocalPaths 测试处理本地路径文档
func TestAnalysisHandler_LocalPaths(t *testing.T) {
	executor := &recordingExecutor{}
	handler := NewAnalysisHandler(nil, executor.execute, nil)

	task := makeTask(t, AnalysisRunPayload{
		RunID:         "run-1",
		Persona:       "Travel Planner",
		JobToBeDone:   "Plan a trip",
		DocumentPaths: []string{"/data/a.pdf", "/data/b.txt"},
	})

	err := handler.ProcessTask(context.Background(), task)
	require.NoError(t, err, "ProcessTask should succeed")

	assert.True(t, executor.called, "Executor should be invoked")
	assert.Equal(t, "run-1", executor.payload.RunID)
	assert.Equal(t, []string{"/data/a.pdf", "/data/b.txt"}, executor.documents)
}

// TestAnalysisHandler_StorageDocuments 测试从存储中取出文档
func TestAnalysisHandler_StorageDocuments(t *testing.T) {
	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	info, err := store.Save(bytes.NewBufferString("document body"), "guide.txt")
	require.NoError(t, err)

	executor := &recordingExecutor{}
	handler := NewAnalysisHandler(store, executor.execute, nil)

	task := makeTask(t, AnalysisRunPayload{
		RunID:       "run-2",
		Persona:     "Researcher",
		JobToBeDone: "Summarize findings",
		DocumentIDs: []string{info.ID, "missing-id"},
	})

	err = handler.ProcessTask(context.Background(), task)
	require.NoError(t, err, "Missing documents should be skipped, not fail the task")

	require.Len(t, executor.documents, 1, "Only the fetchable document should be passed on")
	assert.Equal(t, "guide.txt", filepath.Base(executor.documents[0]),
		"Materialized file should keep the original name")

	// 执行结束后临时目录已清理
	_, statErr := os.Stat(executor.documents[0])
	assert.True(t, os.IsNotExist(statErr), "Temp files should be cleaned up after execution")
}

// TestAnalysisHandler_InvalidPayload 测试无效载荷
func TestAnalysisHandler_InvalidPayload(t *testing.T) {
	executor := &recordingExecutor{}
	handler := NewAnalysisHandler(nil, executor.execute, nil)

	t.Run("wrong task type", func(t *testing.T) {
		task := makeTask(t, AnalysisRunPayload{RunID: "run-3", DocumentPaths: []string{"/a.txt"}})
		task.Type = "unknown_type"

		err := handler.ProcessTask(context.Background(), task)
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("missing run id", func(t *testing.T) {
		task := makeTask(t, AnalysisRunPayload{DocumentPaths: []string{"/a.txt"}})

		err := handler.ProcessTask(context.Background(), task)
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("no documents", func(t *testing.T) {
		task := makeTask(t, AnalysisRunPayload{RunID: "run-4"})

		err := handler.ProcessTask(context.Background(), task)
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("document ids without storage", func(t *testing.T) {
		task := makeTask(t, AnalysisRunPayload{RunID: "run-5", DocumentIDs: []string{"id-1"}})

		err := handler.ProcessTask(context.Background(), task)
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	assert.False(t, executor.called, "Executor should never run on invalid payloads")
}

// TestAnalysisHandler_TaskTypes 测试处理器支持的任务类型
func TestAnalysisHandler_TaskTypes(t *testing.T) {
	handler := NewAnalysisHandler(nil, nil, nil)
	assert.Equal(t, []TaskType{TaskAnalysisRun}, handler.GetTaskTypes())
}
