package repository

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fyerfyer/doc-insight-system/internal/database"
	"github.com/fyerfyer/doc-insight-system/internal/models"
)

// runRepository 分析运行仓储实现
type runRepository struct {
	db *gorm.DB // 数据库连接
}

// NewRunRepository 创建分析运行仓储实例
func NewRunRepository() RunRepository {
	return &runRepository{
		db: database.MustDB(),
	}
}

// NewRunRepositoryWithDB 使用指定的数据库连接创建分析运行仓储实例
func NewRunRepositoryWithDB(db *gorm.DB) RunRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &runRepository{
		db: db,
	}
}

// Create 创建运行记录
func (r *runRepository) Create(run *models.AnalysisRun) error {
	if run.ID == "" {
		return errors.New("run ID cannot be empty")
	}
	if run.Status == "" {
		run.Status = models.RunStatusPending
	}

	return r.db.Create(run).Error
}

// Update 更新运行记录
func (r *runRepository) Update(run *models.AnalysisRun) error {
	if run.ID == "" {
		return errors.New("run ID cannot be empty")
	}

	return r.db.Save(run).Error
}

// GetByID 根据ID获取运行记录
func (r *runRepository) GetByID(id string) (*models.AnalysisRun, error) {
	var run models.AnalysisRun
	err := r.db.Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// List 列出运行记录，支持分页和状态筛选
// status为空时返回所有状态的记录，按创建时间倒序排列
func (r *runRepository) List(offset, limit int, status models.RunStatus) ([]*models.AnalysisRun, int64, error) {
	var runs []*models.AnalysisRun
	var total int64

	query := r.db.Model(&models.AnalysisRun{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}

	return runs, total, nil
}

// UpdateStatus 更新运行状态
// 状态切换到running时记录开始时间，切换到终态时记录完成时间
func (r *runRepository) UpdateStatus(id string, status models.RunStatus, errorMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	switch status {
	case models.RunStatusRunning:
		updates["started_at"] = time.Now()
	case models.RunStatusCompleted, models.RunStatusFailed:
		updates["completed_at"] = time.Now()
	case models.RunStatusPending:
		// 重置为待处理不需要额外的时间字段
	default:
		return models.ErrInvalidRunStatus
	}

	if errorMsg != "" {
		updates["error"] = errorMsg
	}

	result := r.db.Model(&models.AnalysisRun{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrRunNotFound
	}

	return nil
}

// SaveResult 保存运行结果并标记完成
func (r *runRepository) SaveResult(id string, result []byte) error {
	now := time.Now()
	updates := map[string]interface{}{
		"result":       datatypes.JSON(result),
		"status":       models.RunStatusCompleted,
		"completed_at": now,
		"updated_at":   now,
	}

	res := r.db.Model(&models.AnalysisRun{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrRunNotFound
	}

	return nil
}

// Delete 删除运行记录
func (r *runRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.AnalysisRun{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrRunNotFound
	}

	return nil
}
