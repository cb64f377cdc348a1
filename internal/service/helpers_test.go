package service_test

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"campus-taskhub/internal/core/config"
	"campus-taskhub/internal/domain"
	"campus-taskhub/pkg/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// 内存库：多连接各是一份库，锁死单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Department{}, &domain.Task{},
		&domain.PointTransaction{}, &domain.ReputationHistory{},
		&domain.Rating{}, &domain.Message{},
	))
	return db
}

func testEco() config.Economy {
	return config.Economy{
		SignupPoints:       50,
		PostingFee:         10,
		CompletionAward:    15,
		CompletionRepBonus: 5,
		PositiveRatingRep:  3,
		NegativeRatingRep:  2,
		RepBronze:          50,
		RepSilver:          150,
		RepGold:            300,
		RepElite:           600,
		TaskTTLHours:       24,
		CooldownMinutes:    0,
		FarmingMaxPerDay:   5,
		FarmingWindowHours: 24,
	}
}

func mkUser(t *testing.T, db *gorm.DB, points, reputation int, level string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:           utils.NewID(),
		Email:        utils.NewID() + "@campus.test",
		PasswordHash: "x",
		FirstName:    "Test",
		Role:         domain.RoleUser,
		Level:        level,
		Points:       points,
		Reputation:   reputation,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func mkDept(t *testing.T, db *gorm.DB) *domain.Department {
	t.Helper()
	d := &domain.Department{ID: utils.NewID(), Name: "Dept " + utils.NewID(), Code: utils.NewID()[:8]}
	require.NoError(t, db.Create(d).Error)
	return d
}

func mkTask(t *testing.T, db *gorm.DB, requesterID, deptID, status string, acceptorID *string) *domain.Task {
	t.Helper()
	task := &domain.Task{
		ID:           utils.NewID(),
		Title:        "帮取快递",
		Description:  "菜鸟驿站取个件",
		Category:     domain.CategoryErrand,
		DepartmentID: deptID,
		RequesterID:  requesterID,
		AcceptorID:   acceptorID,
		Urgency:      domain.UrgencyMedium,
		RewardPoints: 20,
		Status:       status,
		ExpiresAt:    time.Now().Add(24 * time.Hour),
	}
	if status == domain.TaskAccepted || status == domain.TaskCompleted {
		now := time.Now()
		task.AcceptedAt = &now
	}
	if status == domain.TaskCompleted {
		now := time.Now()
		task.CompletedAt = &now
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

func pointBalance(t *testing.T, db *gorm.DB, userID string) int {
	t.Helper()
	var u domain.User
	require.NoError(t, db.First(&u, "id = ?", userID).Error)
	return u.Points
}

func txSum(t *testing.T, db *gorm.DB, userID string) int {
	t.Helper()
	var sum int
	require.NoError(t, db.Model(&domain.PointTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error)
	return sum
}
