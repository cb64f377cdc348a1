package service

import (
	"errors"

	"gorm.io/gorm"

	"campus-taskhub/internal/core/config"
	"campus-taskhub/internal/domain"
	"campus-taskhub/pkg/utils"
)

// Ledger 积分/信誉原子变更。所有方法都在调用方传入的 tx 上执行，
// 和同笔任务状态变更共用一个事务，要么全部落库要么全部回滚。
type Ledger struct {
	eco config.Economy
}

func NewLedger(eco config.Economy) *Ledger { return &Ledger{eco: eco} }

func (l *Ledger) Thresholds() domain.LevelThresholds {
	return domain.LevelThresholds{
		Bronze: l.eco.RepBronze,
		Silver: l.eco.RepSilver,
		Gold:   l.eco.RepGold,
		Elite:  l.eco.RepElite,
	}
}

// Debit 扣减积分并记流水。余额不足返回 ErrInsufficientPoints。
// 条件更新：points >= amount 不满足时零行生效，余额不可能为负。
func (l *Ledger) Debit(tx *gorm.DB, userID string, amount int, txType, desc string, taskID *string) error {
	if amount <= 0 {
		return ErrValidation
	}
	res := tx.Model(&domain.User{}).
		Where("id = ? AND points >= ?", userID, amount).
		Update("points", gorm.Expr("points - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var u domain.User
		if err := tx.Select("id").First(&u, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return ErrInsufficientPoints
	}
	return tx.Create(&domain.PointTransaction{
		ID:          utils.NewID(),
		UserID:      userID,
		Amount:      -amount,
		Type:        txType,
		Description: desc,
		TaskID:      taskID,
	}).Error
}

// Credit 入账并记流水，无上限
func (l *Ledger) Credit(tx *gorm.DB, userID string, amount int, txType, desc string, taskID *string) error {
	if amount <= 0 {
		return ErrValidation
	}
	res := tx.Model(&domain.User{}).
		Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return tx.Create(&domain.PointTransaction{
		ID:          utils.NewID(),
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: desc,
		TaskID:      taskID,
	}).Error
}

// AdjustReputation 信誉变更（可为负），同步重算等级并记流水
func (l *Ledger) AdjustReputation(tx *gorm.DB, userID string, change int, repType, desc string, taskID, ratingID *string) error {
	if change == 0 {
		return nil
	}
	var u domain.User
	if err := tx.First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	newRep := u.Reputation + change
	newLevel := domain.LevelFor(newRep, l.Thresholds())
	if err := tx.Model(&domain.User{}).Where("id = ?", userID).Updates(map[string]any{
		"reputation": newRep,
		"level":      newLevel,
	}).Error; err != nil {
		return err
	}
	return tx.Create(&domain.ReputationHistory{
		ID:          utils.NewID(),
		UserID:      userID,
		Change:      change,
		Type:        repType,
		Description: desc,
		TaskID:      taskID,
		RatingID:    ratingID,
	}).Error
}
