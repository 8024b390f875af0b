package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-insight-system/api/middleware"
	"github.com/fyerfyer/doc-insight-system/api/model"
	"github.com/fyerfyer/doc-insight-system/pkg/taskqueue"
)

// TaskHandler 处理异步任务状态查询的API请求
type TaskHandler struct {
	taskQueue taskqueue.Queue // 任务队列
	logger    *logrus.Logger  // 日志记录器
}

// NewTaskHandler 创建新的任务处理器
func NewTaskHandler(queue taskqueue.Queue) *TaskHandler {
	return &TaskHandler{
		taskQueue: queue,
		logger:    middleware.GetLogger(),
	}
}

// GetTaskStatus 查询任务状态
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的任务ID"))
		return
	}

	task, err := h.taskQueue.GetTask(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, taskqueue.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"任务不存在",
			))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":   err.Error(),
			"task_id": taskID,
		}).Error("Failed to get task")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取任务状态失败",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(taskqueue.NewTaskInfo(task)))
}

// GetRunTasks 查询分析运行关联的所有任务
// GET /api/analyses/:id/tasks
func (h *TaskHandler) GetRunTasks(c *gin.Context) {
	runID := c.Param("id")
	if runID == "" {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的运行ID"))
		return
	}

	tasks, err := h.taskQueue.GetTasksByRun(c.Request.Context(), runID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"run_id": runID,
		}).Error("Failed to get tasks for run")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取运行任务列表失败",
		))
		return
	}

	infos := make([]*taskqueue.TaskInfo, 0, len(tasks))
	for _, task := range tasks {
		infos = append(infos, taskqueue.NewTaskInfo(task))
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(infos))
}
