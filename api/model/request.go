package model

import "mime/multipart"

// PaginationRequest 分页请求参数
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // 当前页码，从1开始
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // 每页记录数
}

// GetPage 获取页码，默认为1
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页记录数，默认为10，最大为100
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// DocumentUploadRequest 文档上传请求
type DocumentUploadRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"` // 文件对象
}

// DocumentDeleteRequest 文档删除请求
type DocumentDeleteRequest struct {
	ID string `uri:"id" binding:"required"` // 文档ID
}

// AnalysisCreateRequest 创建分析运行请求
type AnalysisCreateRequest struct {
	Persona     string   `json:"persona" binding:"required"`              // 用户角色描述
	JobToBeDone string   `json:"job_to_be_done" binding:"required"`       // 任务描述
	DocumentIDs []string `json:"document_ids" binding:"required,min=1"`   // 已上传文档的ID列表
	Async       bool     `json:"async" binding:"omitempty"`               // 是否异步处理
}

// AnalysisStatusRequest 分析运行状态查询请求
type AnalysisStatusRequest struct {
	ID string `uri:"id" binding:"required"` // 运行ID
}

// AnalysisListRequest 分析运行列表请求
type AnalysisListRequest struct {
	PaginationRequest
	Status string `form:"status" json:"status" binding:"omitempty"` // 运行状态过滤
}
