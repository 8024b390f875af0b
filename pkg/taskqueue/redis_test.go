package taskqueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisTest 设置一个miniredis实例用于测试
// 返回Redis地址和一个清理函数
func setupRedisTest(t *testing.T) (string, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	return mr.Addr(), func() {
		mr.Close()
	}
}

func newTestQueue(t *testing.T) (Queue, func()) {
	redisAddr, cleanup := setupRedisTest(t)

	cfg := &Config{
		RedisAddr:   redisAddr,
		Concurrency: 2,
		RetryLimit:  2,
		RetryDelay:  time.Second,
	}

	queue, err := NewRedisQueue(cfg)
	require.NoError(t, err, "Failed to create redis queue")

	return queue, func() {
		queue.Close()
		cleanup()
	}
}

func testPayload(runID string) AnalysisRunPayload {
	return AnalysisRunPayload{
		RunID:         runID,
		Persona:       "Travel Planner",
		JobToBeDone:   "Plan a trip of 4 days",
		DocumentPaths: []string{"/data/guide.pdf"},
	}
}

// TestNewRedisQueue 测试创建Redis队列实例
func TestNewRedisQueue(t *testing.T) {
	queue, cleanup := newTestQueue(t)
	defer cleanup()

	assert.NotNil(t, queue)
}

// TestRedisQueue_EnqueueAndGet 测试任务入队和查询
func TestRedisQueue_EnqueueAndGet(t *testing.T) {
	queue, cleanup := newTestQueue(t)
	defer cleanup()

	ctx := context.Background()
	taskID, err := queue.Enqueue(ctx, TaskAnalysisRun, "run-1", testPayload("run-1"))
	require.NoError(t, err, "Enqueue should succeed")
	require.NotEmpty(t, taskID)

	task, err := queue.GetTask(ctx, taskID)
	require.NoError(t, err, "GetTask should succeed")

	assert.Equal(t, taskID, task.ID)
	assert.Equal(t, TaskAnalysisRun, task.Type)
	assert.Equal(t, "run-1", task.RunID)
	assert.Equal(t, StatusPending, task.Status)

	var payload AnalysisRunPayload
	require.NoError(t, UnmarshalPayload(task.Payload, &payload))
	assert.Equal(t, "Travel Planner", payload.Persona, "Payload should round-trip")
}

// TestRedisQueue_GetTaskNotFound 测试查询不存在的任务
func TestRedisQueue_GetTaskNotFound(t *testing.T) {
	queue, cleanup := newTestQueue(t)
	defer cleanup()

	_, err := queue.GetTask(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

// TestRedisQueue_GetTasksByRun 测试按运行ID查询任务
func TestRedisQueue_GetTasksByRun(t *testing.T) {
	queue, cleanup := newTestQueue(t)
	defer cleanup()

	ctx := context.Background()
	id1, err := queue.Enqueue(ctx, TaskAnalysisRun, "run-2", testPayload("run-2"))
	require.NoError(t, err)
	id2, err := queue.Enqueue(ctx, TaskAnalysisRun, "run-2", testPayload("run-2"))
	require.NoError(t, err)
	_, err = queue.Enqueue(ctx, TaskAnalysisRun, "other-run", testPayload("other-run"))
	require.NoError(t, err)

	tasks, err := queue.GetTasksByRun(ctx, "run-2")
	require.NoError(t, err, "GetTasksByRun should succeed")
	require.Len(t, tasks, 2, "Only the run's own tasks should be returned")

	ids := []string{tasks[0].ID, tasks[1].ID}
	assert.ElementsMatch(t, []string{id1, id2}, ids)
}

// TestRedisQueue_UpdateTaskStatus 测试任务状态更新
func TestRedisQueue_UpdateTaskStatus(t *testing.T) {
	queue, cleanup := newTestQueue(t)
	defer cleanup()

	ctx := context.Background()
	taskID, err := queue.Enqueue(ctx, TaskAnalysisRun, "run-3", testPayload("run-3"))
	require.NoError(t, err)

	err = queue.UpdateTaskStatus(ctx, taskID, StatusProcessing, nil, "")
	require.NoError(t, err)

	task, err := queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, task.Status)
	require.NotNil(t, task.StartedAt, "StartedAt should be set when processing begins")

	result := AnalysisRunResult{RunID: "run-3", DocumentCount: 2, SectionCount: 9}
	err = queue.UpdateTaskStatus(ctx, taskID, StatusCompleted, result, "")
	require.NoError(t, err)

	task, err = queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt, "CompletedAt should be set on completion")

	var saved AnalysisRunResult
	require.NoError(t, UnmarshalPayload(task.Result, &saved))
	assert.Equal(t, 9, saved.SectionCount, "Result should round-trip")
}

// TestRedisQueue_UpdateTaskStatusFailed 测试任务失败状态
func TestRedisQueue_UpdateTaskStatusFailed(t *testing.T) {
	queue, cleanup := newTestQueue(t)
	defer cleanup()

	ctx := context.Background()
	taskID, err := queue.Enqueue(ctx, TaskAnalysisRun, "run-4", testPayload("run-4"))
	require.NoError(t, err)

	err = queue.UpdateTaskStatus(ctx, taskID, StatusFailed, nil, "no documents could be parsed")
	require.NoError(t, err)

	task, err := queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, task.Status)
	assert.Equal(t, "no documents could be parsed", task.Error)
}

// TestRedisQueue_WaitForTask 测试等待任务完成
func TestRedisQueue_WaitForTask(t *testing.T) {
	queue, cleanup := newTestQueue(t)
	defer cleanup()

	ctx := context.Background()
	taskID, err := queue.Enqueue(ctx, TaskAnalysisRun, "run-5", testPayload("run-5"))
	require.NoError(t, err)

	// 已完成的任务应立即返回
	err = queue.UpdateTaskStatus(ctx, taskID, StatusCompleted, nil, "")
	require.NoError(t, err)

	task, err := queue.WaitForTask(ctx, taskID, 5*time.Second)
	require.NoError(t, err, "WaitForTask should return completed task")
	assert.Equal(t, StatusCompleted, task.Status)

	// 等待一直pending的任务应超时
	pendingID, err := queue.Enqueue(ctx, TaskAnalysisRun, "run-6", testPayload("run-6"))
	require.NoError(t, err)

	_, err = queue.WaitForTask(ctx, pendingID, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrTaskTimeout, "Waiting on a pending task should time out")
}

// TestRedisQueue_DeleteTask 测试任务删除
func TestRedisQueue_DeleteTask(t *testing.T) {
	queue, cleanup := newTestQueue(t)
	defer cleanup()

	ctx := context.Background()
	taskID, err := queue.Enqueue(ctx, TaskAnalysisRun, "run-7", testPayload("run-7"))
	require.NoError(t, err)

	err = queue.DeleteTask(ctx, taskID)
	require.NoError(t, err, "DeleteTask should succeed")

	_, err = queue.GetTask(ctx, taskID)
	assert.ErrorIs(t, err, ErrTaskNotFound, "Deleted task should not be found")

	tasks, err := queue.GetTasksByRun(ctx, "run-7")
	require.NoError(t, err)
	assert.Empty(t, tasks, "Run task set should be cleaned up")
}

// TestNewQueueFactory 测试队列工厂
func TestNewQueueFactory(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewQueue("redis", &Config{RedisAddr: redisAddr})
	require.NoError(t, err, "redis队列工厂应已注册")
	require.NotNil(t, queue)
	queue.Close()

	_, err = NewQueue("rabbitmq", nil)
	assert.Error(t, err, "未注册的队列类型应返回错误")
}
