package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"campus-taskhub/internal/core/config"
	"campus-taskhub/internal/domain"
	"campus-taskhub/pkg/utils"
)

var taskTransitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "task_transitions_total", Help: "Task state machine transitions by action and outcome"},
	[]string{"action", "outcome"},
)

func init() { prometheus.MustRegister(taskTransitions) }

func mark(action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "fail"
	}
	taskTransitions.WithLabelValues(action, outcome).Inc()
}

// Publisher 把消息推给任务房间里的在线连接。单进程用内存 hub，
// 换分布式广播时不动调用方。
type Publisher interface {
	PublishMessage(taskID string, msg *domain.Message)
}

// TaskService 任务状态机。所有跨实体写入（状态 + 台账 + 系统消息）
// 封在同一个事务里；并发竞争靠条件更新裁决，输家零行生效。
type TaskService struct {
	db     *gorm.DB
	ledger *Ledger
	policy *Policy
	eco    config.Economy
	pub    Publisher // 可为 nil（admin 进程、测试）
}

func NewTaskService(db *gorm.DB, ledger *Ledger, policy *Policy, eco config.Economy, pub Publisher) *TaskService {
	return &TaskService{db: db, ledger: ledger, policy: policy, eco: eco, pub: pub}
}

type CreateTaskInput struct {
	Title        string
	Description  string
	Category     string
	DepartmentID string
	Urgency      string
	RewardPoints int
	Latitude     *float64
	Longitude    *float64
	LocationText string
	ImageURL     string
	ExpiresAt    *time.Time
}

func (in *CreateTaskInput) validate() error {
	if in.Title == "" || len(in.Title) > 200 {
		return ErrValidation
	}
	if in.Description == "" || len(in.Description) > 2000 {
		return ErrValidation
	}
	if !domain.ValidCategory(in.Category) {
		return ErrValidation
	}
	if in.Urgency == "" {
		in.Urgency = domain.UrgencyMedium
	}
	if !domain.ValidUrgency(in.Urgency) {
		return ErrValidation
	}
	if in.RewardPoints < 1 || in.RewardPoints > 100 {
		return ErrValidation
	}
	// 自带过期时间必须在未来，不然任务生下来就是死的
	if in.ExpiresAt != nil && !in.ExpiresAt.After(time.Now()) {
		return ErrValidation
	}
	return nil
}

// Create 发布任务：等级 ≥ BRONZE、余额够发布费、院系存在、
// 冷却通过。扣费 + 建任务 + 记发布时间一个事务。
func (s *TaskService) Create(ctx context.Context, callerID string, in CreateTaskInput) (task *domain.Task, err error) {
	defer func() { mark("create", err) }()
	if err = in.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		if e := tx.First(&u, "id = ?", callerID).Error; e != nil {
			if errors.Is(e, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return e
		}
		if u.Level == domain.LevelNew {
			return ErrLevelTooLow
		}
		if wait := s.policy.CheckCooldown(&u, now); wait > 0 {
			return ErrRateLimited
		}
		if u.Points < s.eco.PostingFee {
			return ErrInsufficientPoints
		}

		var dept domain.Department
		if e := tx.First(&dept, "id = ?", in.DepartmentID).Error; e != nil {
			if errors.Is(e, gorm.ErrRecordNotFound) {
				return ErrValidation
			}
			return e
		}

		expiresAt := now.Add(time.Duration(s.eco.TaskTTLHours) * time.Hour)
		if in.ExpiresAt != nil {
			expiresAt = *in.ExpiresAt
		}

		t := &domain.Task{
			ID:           utils.NewID(),
			Title:        in.Title,
			Description:  in.Description,
			Category:     in.Category,
			DepartmentID: in.DepartmentID,
			RequesterID:  callerID,
			Urgency:      in.Urgency,
			RewardPoints: in.RewardPoints,
			Status:       domain.TaskOpen,
			Latitude:     in.Latitude,
			Longitude:    in.Longitude,
			LocationText: in.LocationText,
			ImageURL:     in.ImageURL,
			ExpiresAt:    expiresAt,
		}

		if e := tx.Create(t).Error; e != nil {
			return e
		}
		if e := s.ledger.Debit(tx, callerID, s.eco.PostingFee, domain.TxTaskPosted,
			"Posted task: "+in.Title, &t.ID); e != nil {
			return e
		}
		if e := tx.Model(&domain.User{}).Where("id = ?", callerID).
			Update("last_task_post_at", now).Error; e != nil {
			return e
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, task.ID)
}

// Accept 接单。状态必须还是 OPEN，发起人不能接自己的单；
// 已过期则顺手置 EXPIRED 再报错。两个并发 accept 只能赢一个：
// 条件更新 WHERE status = OPEN，输家零行生效拿 ErrNotOpen。
func (s *TaskService) Accept(ctx context.Context, callerID, taskID string) (task *domain.Task, err error) {
	defer func() { mark("accept", err) }()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, e := findTask(tx, taskID)
		if e != nil {
			return e
		}
		if t.Status != domain.TaskOpen {
			return ErrNotOpen
		}
		if t.RequesterID == callerID {
			return ErrSelfAccept
		}
		now := time.Now()
		if t.ExpiresAt.Before(now) {
			return ErrExpired
		}

		res := tx.Model(&domain.Task{}).
			Where("id = ? AND status = ?", taskID, domain.TaskOpen).
			Updates(map[string]any{
				"status":      domain.TaskAccepted,
				"acceptor_id": callerID,
				"accepted_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotOpen
		}
		return nil
	})
	if errors.Is(err, ErrExpired) {
		// 懒过期：事务已回滚，转 EXPIRED 要单独落库。
		// 零行生效说明别处已经转走了，同样按过期报。
		if e := s.db.WithContext(ctx).Model(&domain.Task{}).
			Where("id = ? AND status = ?", taskID, domain.TaskOpen).
			Update("status", domain.TaskExpired).Error; e != nil {
			return nil, e
		}
		return nil, ErrExpired
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, taskID)
}

// Complete 完成任务。一个事务内：状态置 COMPLETED、给接单人
// 固定完成奖励 + 信誉加成、落一条系统聊天消息。广播在提交后。
func (s *TaskService) Complete(ctx context.Context, callerID, taskID string) (task *domain.Task, err error) {
	defer func() { mark("complete", err) }()
	var sysMsg *domain.Message
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, e := findTask(tx, taskID)
		if e != nil {
			return e
		}
		if t.Status != domain.TaskAccepted {
			return ErrWrongState
		}
		if !t.IsParticipant(callerID) {
			return ErrUnauthorized
		}
		now := time.Now()
		ok, e := s.policy.AllowCompletion(tx, t.RequesterID, *t.AcceptorID, now)
		if e != nil {
			return e
		}
		if !ok {
			return ErrRateLimited
		}

		res := tx.Model(&domain.Task{}).
			Where("id = ? AND status = ?", taskID, domain.TaskAccepted).
			Updates(map[string]any{
				"status":       domain.TaskCompleted,
				"completed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		acceptorID := *t.AcceptorID
		if e := s.ledger.Credit(tx, acceptorID, s.eco.CompletionAward,
			domain.TxTaskCompleted, "Completed task: "+t.Title, &t.ID); e != nil {
			return e
		}
		if e := s.ledger.AdjustReputation(tx, acceptorID, s.eco.CompletionRepBonus,
			domain.RepTaskCompleted, "Completed task: "+t.Title, &t.ID, nil); e != nil {
			return e
		}

		sysMsg = &domain.Message{
			ID:         utils.NewID(),
			TaskID:     t.ID,
			SenderID:   acceptorID,
			ReceiverID: t.RequesterID,
			Content:    "✅ 任务已标记完成，积分稍后到账。",
		}
		return tx.Create(sysMsg).Error
	})
	if err != nil {
		return nil, err
	}
	if s.pub != nil && sysMsg != nil {
		s.pub.PublishMessage(taskID, sysMsg)
	}
	return s.Get(ctx, taskID)
}

// Cancel 取消。OPEN/ACCEPTED 可取消，发布费不退。
func (s *TaskService) Cancel(ctx context.Context, callerID, taskID string) (task *domain.Task, err error) {
	defer func() { mark("cancel", err) }()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, e := findTask(tx, taskID)
		if e != nil {
			return e
		}
		if !t.IsParticipant(callerID) {
			return ErrUnauthorized
		}
		if t.Terminal() {
			return ErrAlreadyTerminal
		}
		res := tx.Model(&domain.Task{}).
			Where("id = ? AND status IN ?", taskID, []string{domain.TaskOpen, domain.TaskAccepted}).
			Update("status", domain.TaskCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, taskID)
}

// Delete 软删：只有发起人或管理员，且未被接单/完成。
// 行不删，状态置 CANCELLED。
func (s *TaskService) Delete(ctx context.Context, callerID, callerRole, taskID string) (err error) {
	defer func() { mark("delete", err) }()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, e := findTask(tx, taskID)
		if e != nil {
			return e
		}
		if t.RequesterID != callerID && callerRole != domain.RoleAdmin {
			return ErrUnauthorized
		}
		if t.Status == domain.TaskAccepted || t.Status == domain.TaskCompleted {
			return ErrWrongState
		}
		res := tx.Model(&domain.Task{}).
			Where("id = ? AND status NOT IN ?", taskID, []string{domain.TaskAccepted, domain.TaskCompleted}).
			Update("status", domain.TaskCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	})
}

// ExpireDue 批量过期，返回转换条数。定时扫描和管理端都会调。
func (s *TaskService) ExpireDue(ctx context.Context) (n int64, err error) {
	defer func() { mark("expire", err) }()
	res := s.db.WithContext(ctx).Model(&domain.Task{}).
		Where("status IN ? AND expires_at < ?", []string{domain.TaskOpen, domain.TaskAccepted}, time.Now()).
		Update("status", domain.TaskExpired)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (s *TaskService) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	var t domain.Task
	err := s.db.WithContext(ctx).
		Preload("Requester").Preload("Acceptor").Preload("Department").
		First(&t, "id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type ListTasksInput struct {
	DepartmentID string
	Category     string
	Status       string
	MyTasks      bool // 我发布的
	AcceptedByMe bool // 我接的
}

func (s *TaskService) List(ctx context.Context, callerID string, in ListTasksInput) ([]domain.Task, error) {
	q := s.db.WithContext(ctx).Model(&domain.Task{}).
		Preload("Requester").Preload("Acceptor").Preload("Department")
	if in.DepartmentID != "" {
		q = q.Where("department_id = ?", in.DepartmentID)
	}
	if in.Category != "" {
		q = q.Where("category = ?", in.Category)
	}
	if in.Status != "" {
		q = q.Where("status = ?", in.Status)
	} else {
		q = q.Where("status IN ?", []string{domain.TaskOpen, domain.TaskAccepted})
	}
	if in.MyTasks {
		q = q.Where("requester_id = ?", callerID)
	}
	if in.AcceptedByMe {
		q = q.Where("acceptor_id = ?", callerID)
	}
	var tasks []domain.Task
	err := q.Order(fmt.Sprintf("CASE urgency WHEN '%s' THEN 0 WHEN '%s' THEN 1 ELSE 2 END",
		domain.UrgencyHigh, domain.UrgencyMedium)).
		Order("created_at DESC").
		Limit(50).
		Find(&tasks).Error
	return tasks, err
}

func findTask(tx *gorm.DB, taskID string) (*domain.Task, error) {
	var t domain.Task
	err := tx.First(&t, "id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
