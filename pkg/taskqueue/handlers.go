package taskqueue

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-insight-system/pkg/storage"
)

// RunExecutor 执行一次分析运行
// documents是已落盘的本地文档路径列表
type RunExecutor func(ctx context.Context, payload *AnalysisRunPayload, documents []string) error

// AnalysisHandler 分析运行任务处理器
// 从存储中取出输入文档并驱动分析流程
type AnalysisHandler struct {
	store   storage.Storage // 文档存储，载荷只含本地路径时可为nil
	execute RunExecutor     // 分析执行函数
	logger  *logrus.Logger  // 日志记录器
}

// NewAnalysisHandler 创建分析运行任务处理器
func NewAnalysisHandler(store storage.Storage, execute RunExecutor, logger *logrus.Logger) *AnalysisHandler {
	if logger == nil {
		logger = logrus.New()
	}

	return &AnalysisHandler{
		store:   store,
		execute: execute,
		logger:  logger,
	}
}

// GetTaskTypes 返回此处理器支持的任务类型
func (h *AnalysisHandler) GetTaskTypes() []TaskType {
	return []TaskType{TaskAnalysisRun}
}

// ProcessTask 处理分析运行任务
func (h *AnalysisHandler) ProcessTask(ctx context.Context, task *Task) error {
	if task.Type != TaskAnalysisRun {
		return fmt.Errorf("unexpected task type %s: %w", task.Type, ErrInvalidPayload)
	}

	var payload AnalysisRunPayload
	if err := UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.RunID == "" {
		return fmt.Errorf("missing run ID: %w", ErrInvalidPayload)
	}

	h.logger.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"run_id":    payload.RunID,
		"documents": len(payload.DocumentIDs) + len(payload.DocumentPaths),
	}).Info("Processing analysis run task")

	documents, cleanup, err := h.resolveDocuments(payload)
	if err != nil {
		return err
	}
	defer cleanup()

	if len(documents) == 0 {
		return fmt.Errorf("no documents to analyze: %w", ErrInvalidPayload)
	}

	return h.execute(ctx, &payload, documents)
}

// resolveDocuments 将载荷中的文档引用解析为本地路径
// 存储中的文档落盘到临时目录，失败的文档跳过
func (h *AnalysisHandler) resolveDocuments(payload AnalysisRunPayload) ([]string, func(), error) {
	documents := append([]string(nil), payload.DocumentPaths...)
	cleanup := func() {}

	if len(payload.DocumentIDs) == 0 {
		return documents, cleanup, nil
	}

	if h.store == nil {
		return nil, cleanup, fmt.Errorf("document IDs given but no storage configured: %w", ErrInvalidPayload)
	}

	tmpDir, err := os.MkdirTemp("", "analysis-run-*")
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create temp directory: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(tmpDir) }

	for _, id := range payload.DocumentIDs {
		localPath, err := storage.Materialize(h.store, id, tmpDir)
		if err != nil {
			h.logger.WithFields(logrus.Fields{
				"run_id":      payload.RunID,
				"document_id": id,
				"error":       err,
			}).Warn("Skipping document that could not be fetched from storage")
			continue
		}
		documents = append(documents, localPath)
	}

	return documents, cleanup, nil
}
