package repository

import (
	"context"

	"gorm.io/gorm"

	"missionhub_backend/internals/features/missions/model"
)

// MissionRepository implements service.MissionStore on top of GORM.
// Writes go through db.Table with explicit field maps so a tier never
// touches columns it does not carry.
type MissionRepository struct {
	DB *gorm.DB
}

func NewMissionRepository(db *gorm.DB) *MissionRepository {
	return &MissionRepository{DB: db}
}

func (r *MissionRepository) UIDExists(ctx context.Context, uid string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Table("missions").
		Where("mission_uid = ?", uid).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MissionRepository) UsedOrderNumbers(ctx context.Context) ([]int, error) {
	var used []int
	err := r.DB.WithContext(ctx).
		Table("missions").
		Pluck("order_no", &used).Error
	if err != nil {
		return nil, err
	}
	return used, nil
}

func (r *MissionRepository) Insert(ctx context.Context, fields map[string]interface{}) error {
	return r.DB.WithContext(ctx).
		Table("missions").
		Create(fields).Error
}

func (r *MissionRepository) UpdateByUID(ctx context.Context, uid string, fields map[string]interface{}) error {
	return r.DB.WithContext(ctx).
		Table("missions").
		Where("mission_uid = ?", uid).
		Updates(fields).Error
}

func (r *MissionRepository) GetByUID(ctx context.Context, uid string) (*model.MissionModel, error) {
	var m model.MissionModel
	if err := r.DB.WithContext(ctx).First(&m, "mission_uid = ?", uid).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MissionRepository) List(ctx context.Context, limit, offset int) ([]model.MissionModel, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&model.MissionModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []model.MissionModel
	err := r.DB.WithContext(ctx).
		Order("order_no ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, total, err
}
