package model

import (
	"time"

	"github.com/fyerfyer/doc-insight-system/internal/models"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// DocumentUploadResponse 文档上传响应
type DocumentUploadResponse struct {
	FileID   string `json:"file_id"`   // 文件ID
	FileName string `json:"filename"`  // 文件名
	Size     int64  `json:"size"`      // 文件大小(字节)
	MimeType string `json:"mime_type"` // 文件MIME类型
}

// DocumentInfo 文档信息
type DocumentInfo struct {
	FileID     string    `json:"file_id"`     // 文件ID
	FileName   string    `json:"filename"`    // 文件名
	Size       int64     `json:"size"`        // 文件大小(字节)
	MimeType   string    `json:"mime_type"`   // 文件MIME类型
	UploadedAt time.Time `json:"uploaded_at"` // 上传时间
}

// DocumentListResponse 文档列表响应
type DocumentListResponse struct {
	Total     int            `json:"total"`     // 总数量
	Documents []DocumentInfo `json:"documents"` // 文档列表
}

// DocumentDeleteResponse 文档删除响应
type DocumentDeleteResponse struct {
	Success bool   `json:"success"` // 是否成功
	FileID  string `json:"file_id"` // 文件ID
}

// AnalysisCreateResponse 创建分析运行响应
type AnalysisCreateResponse struct {
	RunID  string `json:"run_id"`            // 运行ID
	Status string `json:"status"`            // 运行状态
	TaskID string `json:"task_id,omitempty"` // 异步处理时的任务ID
}

// AnalysisStatusResponse 分析运行状态响应
type AnalysisStatusResponse struct {
	RunID          string            `json:"run_id"`                 // 运行ID
	Status         string            `json:"status"`                 // 运行状态
	Persona        string            `json:"persona"`                // 用户角色描述
	JobToBeDone    string            `json:"job_to_be_done"`         // 任务描述
	DocumentCount  int               `json:"document_count"`         // 处理的文档数量
	SectionCount   int               `json:"section_count"`          // 切分出的段落数量
	CandidateCount int               `json:"candidate_count"`        // 参与排序的候选数量
	Error          string            `json:"error,omitempty"`        // 错误信息（如果有）
	CreatedAt      string            `json:"created_at"`             // 创建时间
	StartedAt      string            `json:"started_at,omitempty"`   // 开始处理时间
	CompletedAt    string            `json:"completed_at,omitempty"` // 处理完成时间
	Result         *models.RunOutput `json:"result,omitempty"`       // 分析结果（完成后）
}

// AnalysisSummary 分析运行摘要信息
type AnalysisSummary struct {
	RunID       string `json:"run_id"`         // 运行ID
	Status      string `json:"status"`         // 运行状态
	Persona     string `json:"persona"`        // 用户角色描述
	JobToBeDone string `json:"job_to_be_done"` // 任务描述
	CreatedAt   string `json:"created_at"`     // 创建时间
}

// AnalysisListResponse 分析运行列表响应
type AnalysisListResponse struct {
	Total    int64             `json:"total"`     // 总记录数
	Page     int               `json:"page"`      // 当前页码
	PageSize int               `json:"page_size"` // 每页大小
	Runs     []AnalysisSummary `json:"runs"`      // 运行列表
}

// NewAnalysisStatusResponse 从运行记录构建状态响应
func NewAnalysisStatusResponse(run *models.AnalysisRun, result *models.RunOutput) *AnalysisStatusResponse {
	resp := &AnalysisStatusResponse{
		RunID:          run.ID,
		Status:         string(run.Status),
		Persona:        run.Persona,
		JobToBeDone:    run.JobToBeDone,
		DocumentCount:  run.DocumentCount,
		SectionCount:   run.SectionCount,
		CandidateCount: run.CandidateCount,
		Error:          run.Error,
		CreatedAt:      run.CreatedAt.Format(time.RFC3339),
		Result:         result,
	}

	if run.StartedAt != nil {
		resp.StartedAt = run.StartedAt.Format(time.RFC3339)
	}
	if run.CompletedAt != nil {
		resp.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}

	return resp
}
