package domain

import "time"

const (
	TxTaskPosted    = "TASK_POSTED"
	TxTaskCompleted = "TASK_COMPLETED"
	TxTaskCancelled = "TASK_CANCELLED"
	TxAdminAdjust   = "ADMIN_ADJUSTMENT"
)

const (
	RepTaskCompleted  = "TASK_COMPLETED"
	RepPositiveRating = "POSITIVE_RATING"
	RepNegativeRating = "NEGATIVE_RATING"
	RepAdminAdjust    = "ADMIN_ADJUSTMENT"
)

// PointTransaction 只追加的积分流水。用户余额是冗余缓存，
// 任何余额变动必须与流水同事务写入，两者不允许偏离。
type PointTransaction struct {
	ID          string  `gorm:"primaryKey;size:32" json:"id"`
	UserID      string  `gorm:"size:32;not null;index" json:"userId"`
	Amount      int     `gorm:"not null" json:"amount"` // 带符号
	Type        string  `gorm:"size:32;not null" json:"type"`
	Description string  `gorm:"size:255" json:"description,omitempty"`
	TaskID      *string `gorm:"size:32;index" json:"taskId,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (PointTransaction) TableName() string { return "point_transactions" }

// ReputationHistory 只追加的信誉流水，写入同时重算等级
type ReputationHistory struct {
	ID          string  `gorm:"primaryKey;size:32" json:"id"`
	UserID      string  `gorm:"size:32;not null;index" json:"userId"`
	Change      int     `gorm:"column:rep_change;not null" json:"change"` // 带符号；change 在 MySQL 是保留字
	Type        string  `gorm:"size:32;not null" json:"type"`
	Description string  `gorm:"size:255" json:"description,omitempty"`
	TaskID      *string `gorm:"size:32;index" json:"taskId,omitempty"`
	RatingID    *string `gorm:"size:32" json:"ratingId,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (ReputationHistory) TableName() string { return "reputation_history" }
