package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 通用字段，主键由 snowflake 生成而非自增
type BaseModel struct {
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	ID        int64          `gorm:"primaryKey" json:"id,string"`
}
