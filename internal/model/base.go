package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel 三张表共用的主键与创建时间
type BaseModel struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()" json:"created_at"`
}

// EnsureID 主键由应用侧生成，插入前补齐
func (b *BaseModel) EnsureID() {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
}

// BeforeCreate 实现 gorm hook
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	b.EnsureID()
	return nil
}
