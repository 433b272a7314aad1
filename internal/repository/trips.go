package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"TripWatch/internal/model"
)

// TripRepository 监控行程的持久化访问
type TripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) *TripRepository {
	return &TripRepository{db: db}
}

// GetTrip 按主键查询行程，不存在时返回 (nil, nil)
func (r *TripRepository) GetTrip(ctx context.Context, id int64) (*model.MonitoredTrip, error) {
	var trip model.MonitoredTrip
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&trip).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trip, nil
}

// ActiveTripIDs 返回所有处于激活状态的行程 id，调度器按 id 分发，
// worker 处理前再重新取一次完整记录
func (r *TripRepository) ActiveTripIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.MonitoredTrip{}).
		Where("active = ?", true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListByUser 按用户查询行程列表
func (r *TripRepository) ListByUser(ctx context.Context, userID int64) ([]*model.MonitoredTrip, error) {
	var trips []*model.MonitoredTrip
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&trips).Error
	if err != nil {
		return nil, err
	}
	return trips, nil
}

// CreateTrip 插入新行程
func (r *TripRepository) CreateTrip(ctx context.Context, trip *model.MonitoredTrip) error {
	return r.db.WithContext(ctx).Create(trip).Error
}

// ReplaceTrip 整体覆盖写回行程，返回是否命中记录。
// 行程可能在检查过程中被删除，此时返回 false，调用方放弃写回。
func (r *TripRepository) ReplaceTrip(ctx context.Context, trip *model.MonitoredTrip) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.MonitoredTrip{}).
		Where("id = ?", trip.ID).
		Select("*").
		Omit("id", "created_at", "deleted_at").
		Updates(trip)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteTrip 软删除行程，返回是否命中记录
func (r *TripRepository) DeleteTrip(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.MonitoredTrip{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
