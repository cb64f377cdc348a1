package domain

import "time"

// Message 只属于一个任务的两名参与者
type Message struct {
	ID         string `gorm:"primaryKey;size:32" json:"id"`
	TaskID     string `gorm:"size:32;not null;index" json:"taskId"`
	SenderID   string `gorm:"size:32;not null;index" json:"senderId"`
	ReceiverID string `gorm:"size:32;not null;index" json:"receiverId"`
	Content    string `gorm:"size:1000;not null" json:"content"`
	IsRead     bool   `gorm:"not null;default:false" json:"isRead"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (Message) TableName() string { return "messages" }

// Rating 每个 (task, giver) 至多一条，唯一索引兜底并发
type Rating struct {
	ID         string `gorm:"primaryKey;size:32" json:"id"`
	TaskID     string `gorm:"size:32;not null;uniqueIndex:uk_task_giver" json:"taskId"`
	GiverID    string `gorm:"size:32;not null;uniqueIndex:uk_task_giver" json:"giverId"`
	ReceiverID string `gorm:"size:32;not null;index" json:"receiverId"`
	Score      int    `gorm:"not null" json:"score"` // 1..5
	Comment    string `gorm:"size:500" json:"comment,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Rating) TableName() string { return "ratings" }
