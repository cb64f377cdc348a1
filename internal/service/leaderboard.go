package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"campus-taskhub/internal/core/cache"
	"campus-taskhub/internal/domain"
)

// LeaderboardService 排行榜只读聚合，redis 缓存 + singleflight 扛读
type LeaderboardService struct {
	db    *gorm.DB
	cache *cache.Cache
	ttl   time.Duration
}

func NewLeaderboardService(db *gorm.DB, c *cache.Cache) *LeaderboardService {
	return &LeaderboardService{db: db, cache: c, ttl: 60 * time.Second}
}

type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	UserID           string `json:"userId"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Reputation       int    `json:"reputation"`
	Points           int    `json:"points"`
	Level            string `json:"level"`
	TasksCompleted   int64  `json:"tasksCompleted"`
	ReputationChange int    `json:"reputationChange,omitempty"` // 仅周榜
}

type Leaderboard struct {
	Type    string             `json:"type"` // all-time / weekly / department
	Entries []LeaderboardEntry `json:"leaderboard"`
}

func (s *LeaderboardService) Get(ctx context.Context, boardType, departmentID string) (*Leaderboard, error) {
	key := "leaderboard:" + boardType + ":" + departmentID
	if s.cache == nil {
		return s.load(ctx, boardType, departmentID)
	}
	return cache.GetOrLoadJSON[Leaderboard](s.cache, ctx, key, s.ttl, func(ctx context.Context) (*Leaderboard, error) {
		return s.load(ctx, boardType, departmentID)
	})
}

func (s *LeaderboardService) load(ctx context.Context, boardType, departmentID string) (*Leaderboard, error) {
	q := s.db.WithContext(ctx).Model(&domain.User{})
	if boardType == "department" && departmentID != "" {
		q = q.Where("department_id = ?", departmentID)
	}

	var users []domain.User
	if err := q.Order("reputation DESC").Limit(100).Find(&users).Error; err != nil {
		return nil, err
	}

	out := &Leaderboard{Type: boardType, Entries: make([]LeaderboardEntry, 0, len(users))}
	for i, u := range users {
		var completed int64
		if err := s.db.WithContext(ctx).Model(&domain.Task{}).
			Where("acceptor_id = ? AND status = ?", u.ID, domain.TaskCompleted).
			Count(&completed).Error; err != nil {
			return nil, err
		}
		out.Entries = append(out.Entries, LeaderboardEntry{
			Rank:           i + 1,
			UserID:         u.ID,
			FirstName:      u.FirstName,
			LastName:       u.LastName,
			Reputation:     u.Reputation,
			Points:         u.Points,
			Level:          u.Level,
			TasksCompleted: completed,
		})
	}

	if boardType == "weekly" {
		if err := s.applyWeekly(ctx, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// applyWeekly 周榜按最近 7 天信誉变化重排
func (s *LeaderboardService) applyWeekly(ctx context.Context, b *Leaderboard) error {
	weekAgo := time.Now().AddDate(0, 0, -7)

	type sumRow struct {
		UserID string
		Total  int
	}
	var rows []sumRow
	if err := s.db.WithContext(ctx).Model(&domain.ReputationHistory{}).
		Select("user_id, SUM(rep_change) AS total").
		Where("created_at >= ?", weekAgo).
		Group("user_id").
		Scan(&rows).Error; err != nil {
		return err
	}
	changes := make(map[string]int, len(rows))
	for _, r := range rows {
		changes[r.UserID] = r.Total
	}

	for i := range b.Entries {
		b.Entries[i].ReputationChange = changes[b.Entries[i].UserID]
	}
	sort.SliceStable(b.Entries, func(i, j int) bool {
		return b.Entries[i].ReputationChange > b.Entries[j].ReputationChange
	})
	for i := range b.Entries {
		b.Entries[i].Rank = i + 1
	}
	return nil
}
