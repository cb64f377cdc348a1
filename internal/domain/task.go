package domain

import "time"

const (
	TaskOpen      = "OPEN"
	TaskAccepted  = "ACCEPTED"
	TaskCompleted = "COMPLETED"
	TaskCancelled = "CANCELLED"
	TaskExpired   = "EXPIRED"
)

const (
	CategoryErrand   = "ERRAND"
	CategoryLost     = "LOST"
	CategoryBook     = "BOOK"
	CategoryTutoring = "TUTORING"
	CategoryOther    = "OTHER"
)

const (
	UrgencyLow    = "LOW"
	UrgencyMedium = "MEDIUM"
	UrgencyHigh   = "HIGH"
)

// Task 生命周期：OPEN → ACCEPTED → COMPLETED，
// OPEN|ACCEPTED 可转 CANCELLED / EXPIRED，终态不再流转。
// 不物理删除，删除接口做软取消。
type Task struct {
	ID          string `gorm:"primaryKey;size:32" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"size:2000;not null" json:"description"`
	Category    string `gorm:"size:16;not null;index" json:"category"`

	DepartmentID string     `gorm:"size:32;not null;index" json:"departmentId"`
	Department   Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`

	// RequesterID 创建后不可变；AcceptorID 为空 ⇔ 状态为 OPEN，写入后不可变
	RequesterID string  `gorm:"size:32;not null;index" json:"requesterId"`
	Requester   User    `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	AcceptorID  *string `gorm:"size:32;index" json:"acceptorId,omitempty"`
	Acceptor    *User   `gorm:"foreignKey:AcceptorID" json:"acceptor,omitempty"`

	Urgency string `gorm:"size:8;not null;default:MEDIUM" json:"urgency"`

	// RewardPoints 仅展示；完成到账走固定 CompletionAward
	RewardPoints int    `gorm:"not null" json:"rewardPoints"`
	Status       string `gorm:"size:16;not null;default:OPEN;index" json:"status"`

	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	LocationText string   `gorm:"size:255" json:"locationText,omitempty"`
	ImageURL     string   `gorm:"size:512" json:"imageUrl,omitempty"`

	ExpiresAt   time.Time  `gorm:"not null;index" json:"expiresAt"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	CompletedAt *time.Time `gorm:"index" json:"completedAt,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Task) TableName() string { return "tasks" }

// Terminal 终态判断
func (t *Task) Terminal() bool {
	switch t.Status {
	case TaskCompleted, TaskCancelled, TaskExpired:
		return true
	}
	return false
}

// IsParticipant 请求者或接受者
func (t *Task) IsParticipant(userID string) bool {
	if t.RequesterID == userID {
		return true
	}
	return t.AcceptorID != nil && *t.AcceptorID == userID
}

// OtherParty 对端（服务端计算，不信任客户端传入的 receiver）
func (t *Task) OtherParty(userID string) string {
	if t.RequesterID == userID && t.AcceptorID != nil {
		return *t.AcceptorID
	}
	if t.AcceptorID != nil && *t.AcceptorID == userID {
		return t.RequesterID
	}
	return ""
}

func ValidCategory(c string) bool {
	switch c {
	case CategoryErrand, CategoryLost, CategoryBook, CategoryTutoring, CategoryOther:
		return true
	}
	return false
}

func ValidUrgency(u string) bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}
