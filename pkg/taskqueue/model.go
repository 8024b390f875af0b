package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType 任务类型
type TaskType string

const (
	// TaskAnalysisRun 文档分析运行任务
	TaskAnalysisRun TaskType = "analysis_run"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	// StatusPending 等待处理
	StatusPending TaskStatus = "pending"
	// StatusProcessing 处理中
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted 已完成
	StatusCompleted TaskStatus = "completed"
	// StatusFailed 处理失败
	StatusFailed TaskStatus = "failed"
)

// Task 任务基础结构
type Task struct {
	ID          string          `json:"id"`           // 任务唯一标识符
	Type        TaskType        `json:"type"`         // 任务类型
	RunID       string          `json:"run_id"`       // 关联的分析运行ID
	Status      TaskStatus      `json:"status"`       // 任务状态
	Payload     json.RawMessage `json:"payload"`      // 任务载荷数据，不同任务类型对应不同结构
	Result      json.RawMessage `json:"result"`       // 任务结果数据
	Error       string          `json:"error"`        // 错误信息（如果处理失败）
	CreatedAt   time.Time       `json:"created_at"`   // 创建时间
	UpdatedAt   time.Time       `json:"updated_at"`   // 更新时间
	StartedAt   *time.Time      `json:"started_at"`   // 开始处理时间
	CompletedAt *time.Time      `json:"completed_at"` // 完成时间
	Attempts    int             `json:"attempts"`     // 尝试次数
	MaxRetries  int             `json:"max_retries"`  // 最大重试次数
}

// AnalysisRunPayload 分析运行任务载荷
// 文档可以通过存储ID或本地路径给出，两者可混用
type AnalysisRunPayload struct {
	RunID         string   `json:"run_id"`         // 分析运行ID
	Persona       string   `json:"persona"`        // 用户角色描述
	JobToBeDone   string   `json:"job_to_be_done"` // 任务描述
	DocumentIDs   []string `json:"document_ids"`   // 存储中的文档ID列表
	DocumentPaths []string `json:"document_paths"` // 本地文档路径列表
}

// AnalysisRunResult 分析运行任务结果
type AnalysisRunResult struct {
	RunID          string `json:"run_id"`          // 分析运行ID
	DocumentCount  int    `json:"document_count"`  // 成功解析的文档数量
	SectionCount   int    `json:"section_count"`   // 切分出的段落数量
	CandidateCount int    `json:"candidate_count"` // 参与排序的候选数量
	Error          string `json:"error"`           // 错误信息（如果有）
}
