package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-insight-system/api/middleware"
	"github.com/fyerfyer/doc-insight-system/api/model"
	"github.com/fyerfyer/doc-insight-system/internal/models"
	"github.com/fyerfyer/doc-insight-system/internal/services"
	"github.com/fyerfyer/doc-insight-system/pkg/storage"
	"github.com/fyerfyer/doc-insight-system/pkg/taskqueue"
)

// AnalysisHandler 处理分析运行相关的API请求
type AnalysisHandler struct {
	service     *services.AnalysisService // 分析服务
	fileStorage storage.Storage           // 文件存储服务
	taskQueue   taskqueue.Queue           // 任务队列，未配置时仅支持同步处理
	logger      *logrus.Logger            // 日志记录器
}

// NewAnalysisHandler 创建新的分析处理器
func NewAnalysisHandler(service *services.AnalysisService, fileStorage storage.Storage, queue taskqueue.Queue) *AnalysisHandler {
	return &AnalysisHandler{
		service:     service,
		fileStorage: fileStorage,
		taskQueue:   queue,
		logger:      middleware.GetLogger(),
	}
}

// CreateAnalysis 创建分析运行
// POST /api/analyses
// async为true且任务队列可用时入队异步处理，否则同步执行并返回结果
func (h *AnalysisHandler) CreateAnalysis(c *gin.Context) {
	var req model.AnalysisCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Invalid analysis create request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"无效的请求参数",
		))
		return
	}

	// 检查引用的文档是否存在
	for _, id := range req.DocumentIDs {
		exists, err := h.fileStorage.Exists(id)
		if err != nil || !exists {
			c.JSON(http.StatusBadRequest, model.NewErrorResponse(
				http.StatusBadRequest,
				"文档不存在: "+id,
			))
			return
		}
	}

	run, err := h.service.CreateRun(services.AnalysisRequest{
		Persona:     req.Persona,
		JobToBeDone: req.JobToBeDone,
		Documents:   req.DocumentIDs,
	})
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to create analysis run")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"创建分析运行失败",
		))
		return
	}

	if req.Async && h.taskQueue != nil {
		h.createAsync(c, run, req)
		return
	}

	h.createSync(c, run, req)
}

// createAsync 将分析运行加入任务队列
func (h *AnalysisHandler) createAsync(c *gin.Context, run *models.AnalysisRun, req model.AnalysisCreateRequest) {
	payload := taskqueue.AnalysisRunPayload{
		RunID:       run.ID,
		Persona:     req.Persona,
		JobToBeDone: req.JobToBeDone,
		DocumentIDs: req.DocumentIDs,
	}

	taskID, err := h.taskQueue.Enqueue(c.Request.Context(), taskqueue.TaskAnalysisRun, run.ID, payload)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"run_id": run.ID,
		}).Error("Failed to enqueue analysis task")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"分析任务入队失败",
		))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"run_id":  run.ID,
		"task_id": taskID,
	}).Info("Analysis run enqueued")

	c.JSON(http.StatusAccepted, model.NewSuccessResponse(model.AnalysisCreateResponse{
		RunID:  run.ID,
		Status: string(models.RunStatusPending),
		TaskID: taskID,
	}))
}

// createSync 同步执行分析运行并返回结果
func (h *AnalysisHandler) createSync(c *gin.Context, run *models.AnalysisRun, req model.AnalysisCreateRequest) {
	// 将存储中的文档落盘供解析器使用
	tmpDir, err := os.MkdirTemp("", "analysis-run-*")
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"创建临时目录失败",
		))
		return
	}
	defer os.RemoveAll(tmpDir)

	documents := make([]string, 0, len(req.DocumentIDs))
	for _, id := range req.DocumentIDs {
		localPath, err := storage.Materialize(h.fileStorage, id, tmpDir)
		if err != nil {
			h.logger.WithFields(logrus.Fields{
				"run_id":      run.ID,
				"document_id": id,
				"error":       err,
			}).Warn("Skipping document that could not be fetched from storage")
			continue
		}
		documents = append(documents, localPath)
	}

	output, err := h.service.ExecuteRun(c.Request.Context(), run.ID, services.AnalysisRequest{
		Persona:     req.Persona,
		JobToBeDone: req.JobToBeDone,
		Documents:   documents,
	})
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"run_id": run.ID,
		}).Error("Analysis run failed")

		c.JSON(http.StatusUnprocessableEntity, model.NewErrorResponse(
			http.StatusUnprocessableEntity,
			"分析运行失败: "+err.Error(),
		))
		return
	}

	saved, err := h.service.GetRun(run.ID)
	if err != nil {
		// 结果已生成，记录读取失败但仍然返回结果
		h.logger.WithField("run_id", run.ID).Warn("Failed to reload run record")
		saved = run
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewAnalysisStatusResponse(saved, output)))
}

// GetAnalysis 获取分析运行状态和结果
// GET /api/analyses/:id
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	var req model.AnalysisStatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的运行ID"))
		return
	}

	run, err := h.service.GetRun(req.ID)
	if err != nil {
		if errors.Is(err, models.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"分析运行不存在",
			))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"run_id": req.ID,
		}).Error("Failed to get analysis run")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取分析运行失败",
		))
		return
	}

	var result *models.RunOutput
	if len(run.Result) > 0 {
		var output models.RunOutput
		if err := json.Unmarshal(run.Result, &output); err == nil {
			result = &output
		} else {
			h.logger.WithField("run_id", run.ID).Warn("Failed to decode persisted run result")
		}
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewAnalysisStatusResponse(run, result)))
}

// ListAnalyses 列出分析运行
// GET /api/analyses
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	var req model.AnalysisListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	page := req.GetPage()
	pageSize := req.GetPageSize()
	offset := (page - 1) * pageSize

	runs, total, err := h.service.ListRuns(offset, pageSize, models.RunStatus(req.Status))
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list analysis runs")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取分析运行列表失败",
		))
		return
	}

	summaries := make([]model.AnalysisSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, model.AnalysisSummary{
			RunID:       run.ID,
			Status:      string(run.Status),
			Persona:     run.Persona,
			JobToBeDone: run.JobToBeDone,
			CreatedAt:   run.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.AnalysisListResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Runs:     summaries,
	}))
}
