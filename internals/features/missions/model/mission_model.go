package model

import (
	"time"

	"gorm.io/datatypes"
)

// MissionModel maps the missions table. mission_uid and order_no are
// globally unique; every optional column here may be missing from an older
// deployment, which is why writes go through tiered field maps instead of
// this struct (see the upsert engine).
type MissionModel struct {
	MissionID   string         `gorm:"column:mission_id;primaryKey;type:uuid;default:gen_random_uuid()" json:"mission_id"`
	Title       string         `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Description *string        `gorm:"column:description;type:text" json:"description"`
	MissionUID  string         `gorm:"column:mission_uid;type:varchar(120);uniqueIndex;not null" json:"mission_uid"`
	OrderNo     int            `gorm:"column:order_no;uniqueIndex;not null" json:"order_no"`
	ObjectPath  string         `gorm:"column:object_path;type:text;not null" json:"object_path"`
	MissionData datatypes.JSON `gorm:"column:mission_data;type:jsonb" json:"mission_data,omitempty"`

	XPReward         *int    `gorm:"column:xp_reward" json:"xp_reward,omitempty"`
	Unlocked         *bool   `gorm:"column:unlocked;default:false" json:"unlocked,omitempty"`
	AssetsBucket     *string `gorm:"column:assets_bucket;type:varchar(120)" json:"assets_bucket,omitempty"`
	AssetsPrefix     *string `gorm:"column:assets_prefix;type:text" json:"assets_prefix,omitempty"`
	UnlockPlayground *bool   `gorm:"column:unlock_playground" json:"unlock_playground,omitempty"`
	UnlocksProjects  *bool   `gorm:"column:unlocks_projects" json:"unlocks_projects,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (MissionModel) TableName() string {
	return "missions"
}
