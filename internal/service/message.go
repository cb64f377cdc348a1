package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"campus-taskhub/internal/domain"
	"campus-taskhub/pkg/utils"
)

// MessageService 任务聊天。聊天窗口跟着任务状态走：
// OPEN 还没开聊，COMPLETED 之后只读。
type MessageService struct {
	db  *gorm.DB
	pub Publisher
}

func NewMessageService(db *gorm.DB, pub Publisher) *MessageService {
	return &MessageService{db: db, pub: pub}
}

// List 按创建时间升序返回任务的全部消息。
// 客户端断线重连后靠这个接口对账。
func (s *MessageService) List(ctx context.Context, callerID, taskID string) ([]domain.Message, error) {
	t, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !t.IsParticipant(callerID) {
		return nil, ErrUnauthorized
	}
	if t.Status == domain.TaskOpen {
		return nil, ErrWrongState
	}
	var msgs []domain.Message
	err = s.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}

// Send 发消息。接收方由服务端算出（对端），客户端传了也不信。
// 落库成功后广播到任务房间。
func (s *MessageService) Send(ctx context.Context, callerID, taskID, content string) (*domain.Message, error) {
	if content == "" || len(content) > 1000 {
		return nil, ErrValidation
	}
	t, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !t.IsParticipant(callerID) {
		return nil, ErrUnauthorized
	}
	switch t.Status {
	case domain.TaskOpen, domain.TaskCompleted:
		return nil, ErrWrongState
	}
	receiver := t.OtherParty(callerID)
	if receiver == "" {
		return nil, ErrInvalidReceiver
	}

	msg := &domain.Message{
		ID:         utils.NewID(),
		TaskID:     taskID,
		SenderID:   callerID,
		ReceiverID: receiver,
		Content:    content,
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	if s.pub != nil {
		s.pub.PublishMessage(taskID, msg)
	}
	return msg, nil
}

// MarkRead 只有接收方能把自己的消息标记已读
func (s *MessageService) MarkRead(ctx context.Context, callerID, messageID string) error {
	return s.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ? AND receiver_id = ? AND is_read = ?", messageID, callerID, false).
		Update("is_read", true).Error
}

// CanJoin 入房校验：每次都重读任务状态，不用缓存
func (s *MessageService) CanJoin(ctx context.Context, callerID, taskID string) bool {
	t, err := s.loadTask(ctx, taskID)
	if err != nil {
		return false
	}
	return t.IsParticipant(callerID)
}

func (s *MessageService) loadTask(ctx context.Context, taskID string) (*domain.Task, error) {
	var t domain.Task
	err := s.db.WithContext(ctx).First(&t, "id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
