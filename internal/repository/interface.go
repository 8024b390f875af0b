package repository

import "github.com/fyerfyer/doc-insight-system/internal/models"

// RunRepository 分析运行仓储接口
// 负责分析运行记录的存储和检索
type RunRepository interface {
	// Create 创建运行记录
	Create(run *models.AnalysisRun) error

	// Update 更新运行记录
	Update(run *models.AnalysisRun) error

	// GetByID 根据ID获取运行记录
	GetByID(id string) (*models.AnalysisRun, error)

	// List 列出运行记录，支持分页和状态筛选
	List(offset, limit int, status models.RunStatus) ([]*models.AnalysisRun, int64, error)

	// UpdateStatus 更新运行状态
	UpdateStatus(id string, status models.RunStatus, errorMsg string) error

	// SaveResult 保存运行结果并标记完成
	SaveResult(id string, result []byte) error

	// Delete 删除运行记录
	Delete(id string) error
}
