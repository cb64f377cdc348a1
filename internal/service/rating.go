package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"campus-taskhub/internal/core/config"
	"campus-taskhub/internal/domain"
	"campus-taskhub/pkg/utils"
)

// RatingService 评分与信誉桥接：评分落库和信誉变更必须同事务，
// 只写一半就是数据不一致。
type RatingService struct {
	db     *gorm.DB
	ledger *Ledger
	eco    config.Economy
}

func NewRatingService(db *gorm.DB, ledger *Ledger, eco config.Economy) *RatingService {
	return &RatingService{db: db, ledger: ledger, eco: eco}
}

// Submit 只能评已完成任务的对端，每个 (task, giver) 一次。
// score >=4 给对方加信誉，<=2 扣，3 分不动。
// 并发重复提交靠唯一索引兜底，冲突映射成 ErrAlreadyRated。
func (s *RatingService) Submit(ctx context.Context, callerID, taskID string, score int, comment string) (*domain.Rating, error) {
	if score < 1 || score > 5 {
		return nil, ErrValidation
	}
	if len(comment) > 500 {
		return nil, ErrValidation
	}

	var rating *domain.Rating
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, e := findTask(tx, taskID)
		if e != nil {
			return e
		}
		if t.Status != domain.TaskCompleted {
			return ErrWrongState
		}
		if !t.IsParticipant(callerID) {
			return ErrUnauthorized
		}
		receiver := t.OtherParty(callerID)
		if receiver == "" {
			return ErrInvalidReceiver
		}

		var count int64
		if e := tx.Model(&domain.Rating{}).
			Where("task_id = ? AND giver_id = ?", taskID, callerID).
			Count(&count).Error; e != nil {
			return e
		}
		if count > 0 {
			return ErrAlreadyRated
		}

		r := &domain.Rating{
			ID:         utils.NewID(),
			TaskID:     taskID,
			GiverID:    callerID,
			ReceiverID: receiver,
			Score:      score,
			Comment:    comment,
		}
		if e := tx.Create(r).Error; e != nil {
			if IsDupKey(e) {
				return ErrAlreadyRated
			}
			return e
		}

		desc := fmt.Sprintf("Received %d/5 rating", score)
		switch {
		case score >= 4:
			if e := s.ledger.AdjustReputation(tx, receiver, s.eco.PositiveRatingRep,
				domain.RepPositiveRating, desc, &t.ID, &r.ID); e != nil {
				return e
			}
		case score <= 2:
			if e := s.ledger.AdjustReputation(tx, receiver, -s.eco.NegativeRatingRep,
				domain.RepNegativeRating, desc, &t.ID, &r.ID); e != nil {
				return e
			}
		}
		rating = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// ListForTask 任务详情页带出的评分
func (s *RatingService) ListForTask(ctx context.Context, taskID string) ([]domain.Rating, error) {
	var rs []domain.Rating
	err := s.db.WithContext(ctx).Where("task_id = ?", taskID).Find(&rs).Error
	return rs, err
}
