package service

import (
	"time"

	"gorm.io/gorm"

	"campus-taskhub/internal/core/config"
	"campus-taskhub/internal/domain"
)

// Policy 防滥用检查。不持有进程内状态，每次查询落到存储，
// 多实例部署时结论一致。
type Policy struct {
	eco config.Economy
}

func NewPolicy(eco config.Economy) *Policy { return &Policy{eco: eco} }

// CheckCooldown 发布冷却。CooldownMinutes == 0 时关闭。
// 返回还需等待的分钟数，0 表示可发。
func (p *Policy) CheckCooldown(u *domain.User, now time.Time) int {
	if p.eco.CooldownMinutes <= 0 || u.LastTaskPostAt == nil {
		return 0
	}
	cooldown := time.Duration(p.eco.CooldownMinutes) * time.Minute
	elapsed := now.Sub(*u.LastTaskPostAt)
	if elapsed >= cooldown {
		return 0
	}
	wait := cooldown - elapsed
	return int((wait + time.Minute - 1) / time.Minute)
}

// AllowCompletion 刷分防护：同一对用户（双向）窗口期内已完成
// 次数达到上限则拒绝。窗口滑过即恢复，不是永久封禁。
func (p *Policy) AllowCompletion(tx *gorm.DB, requesterID, acceptorID string, now time.Time) (bool, error) {
	window := time.Duration(p.eco.FarmingWindowHours) * time.Hour
	since := now.Add(-window)

	var count int64
	err := tx.Model(&domain.Task{}).
		Where("status = ? AND completed_at >= ?", domain.TaskCompleted, since).
		Where(
			tx.Where("requester_id = ? AND acceptor_id = ?", requesterID, acceptorID).
				Or("requester_id = ? AND acceptor_id = ?", acceptorID, requesterID),
		).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count < int64(p.eco.FarmingMaxPerDay), nil
}
