package domain

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser    = "USER"
	RoleTrusted = "TRUSTED"
	RoleAdmin   = "ADMIN"
)

const (
	LevelNew    = "NEW"
	LevelBronze = "BRONZE"
	LevelSilver = "SILVER"
	LevelGold   = "GOLD"
	LevelElite  = "ELITE"
)

type User struct {
	ID           string `gorm:"primaryKey;size:32" json:"id"`
	Email        string `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	FirstName    string `gorm:"size:64" json:"firstName"`
	LastName     string `gorm:"size:64" json:"lastName"`
	StudentID    *string `gorm:"uniqueIndex;size:32" json:"studentId,omitempty"`
	Phone        string  `gorm:"size:32" json:"phone,omitempty"`
	Role         string  `gorm:"size:16;not null;default:USER" json:"role"`

	// Level 由 Reputation 推导，除管理员覆盖外不直接写
	Level      string `gorm:"size:16;not null;default:NEW" json:"level"`
	Points     int    `gorm:"not null;default:0" json:"points"`
	Reputation int    `gorm:"not null;default:0" json:"reputation"`

	DepartmentID   string     `gorm:"size:32;index" json:"departmentId"`
	LastTaskPostAt *time.Time `json:"lastTaskPostAt,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

type Department struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Code      string    `gorm:"uniqueIndex;size:16;not null" json:"code"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Department) TableName() string { return "departments" }

// LevelThresholds 各等级的信誉门槛（升序）
type LevelThresholds struct {
	Bronze int
	Silver int
	Gold   int
	Elite  int
}

// LevelFor 等级是信誉的纯函数，信誉每次变动后必须重算
func LevelFor(reputation int, t LevelThresholds) string {
	switch {
	case reputation >= t.Elite:
		return LevelElite
	case reputation >= t.Gold:
		return LevelGold
	case reputation >= t.Silver:
		return LevelSilver
	case reputation >= t.Bronze:
		return LevelBronze
	default:
		return LevelNew
	}
}
