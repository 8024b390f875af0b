package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunStatus 分析运行的状态类型
type RunStatus string

const (
	// RunStatusPending 运行已创建，等待处理
	RunStatusPending RunStatus = "pending"
	// RunStatusRunning 运行处理中
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted 运行处理完成
	RunStatusCompleted RunStatus = "completed"
	// RunStatusFailed 运行处理失败
	RunStatusFailed RunStatus = "failed"
)

// AnalysisRun 分析运行数据模型
// 记录每次管道运行的输入、统计信息和结果
type AnalysisRun struct {
	ID             string         `gorm:"primaryKey"`         // 运行ID，主键
	Persona        string         `gorm:"type:text;not null"` // 用户角色描述
	JobToBeDone    string         `gorm:"type:text;not null"` // 任务描述
	Status         RunStatus      `gorm:"not null;index"`     // 运行状态
	DocumentCount  int            `gorm:"not null;default:0"` // 处理的文档数量
	SectionCount   int            `gorm:"not null;default:0"` // 切分出的段落数量
	CandidateCount int            `gorm:"not null;default:0"` // 参与排序的候选数量
	Result         datatypes.JSON `gorm:"type:json"`          // 运行结果，JSON格式
	Error          string         `gorm:"type:text"`          // 错误信息
	CreatedAt      time.Time      `gorm:"not null;index"`     // 创建时间
	UpdatedAt      time.Time      `gorm:"not null"`           // 更新时间
	StartedAt      *time.Time     `gorm:"index"`              // 开始处理时间
	CompletedAt    *time.Time     `gorm:"index"`              // 处理完成时间
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (r *AnalysisRun) BeforeCreate(tx *gorm.DB) (err error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (r *AnalysisRun) BeforeUpdate(tx *gorm.DB) (err error) {
	r.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (AnalysisRun) TableName() string {
	return "analysis_runs"
}
