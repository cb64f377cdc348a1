package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-taskhub/internal/domain"
	"campus-taskhub/internal/service"
	"campus-taskhub/pkg/utils"
)

func TestLeaderboardAllTime(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewLeaderboardService(db, nil)
	ctx := context.Background()

	dept := mkDept(t, db)
	high := mkUser(t, db, 100, 300, domain.LevelGold)
	mid := mkUser(t, db, 50, 150, domain.LevelSilver)
	low := mkUser(t, db, 10, 20, domain.LevelNew)

	mkTask(t, db, low.ID, dept.ID, domain.TaskCompleted, &high.ID)
	mkTask(t, db, low.ID, dept.ID, domain.TaskCompleted, &high.ID)

	b, err := svc.Get(ctx, "all-time", "")
	require.NoError(t, err)
	require.Len(t, b.Entries, 3)

	assert.Equal(t, high.ID, b.Entries[0].UserID)
	assert.Equal(t, 1, b.Entries[0].Rank)
	assert.EqualValues(t, 2, b.Entries[0].TasksCompleted)
	assert.Equal(t, mid.ID, b.Entries[1].UserID)
	assert.Equal(t, low.ID, b.Entries[2].UserID)
}

func TestLeaderboardWeekly(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewLeaderboardService(db, nil)
	ctx := context.Background()

	veteran := mkUser(t, db, 0, 500, domain.LevelGold) // 信誉高但本周没动
	climber := mkUser(t, db, 0, 60, domain.LevelBronze)

	require.NoError(t, db.Create(&domain.ReputationHistory{
		ID: utils.NewID(), UserID: climber.ID, Change: 25, Type: domain.RepTaskCompleted,
	}).Error)

	b, err := svc.Get(ctx, "weekly", "")
	require.NoError(t, err)
	require.Len(t, b.Entries, 2)

	// 周榜看最近变化，不看存量
	assert.Equal(t, climber.ID, b.Entries[0].UserID)
	assert.Equal(t, 25, b.Entries[0].ReputationChange)
	assert.Equal(t, veteran.ID, b.Entries[1].UserID)
	assert.Equal(t, 2, b.Entries[1].Rank)
}

func TestLeaderboardDepartmentScoped(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewLeaderboardService(db, nil)
	ctx := context.Background()

	deptA := mkDept(t, db)
	deptB := mkDept(t, db)

	inA := mkUser(t, db, 0, 100, domain.LevelBronze)
	inB := mkUser(t, db, 0, 200, domain.LevelSilver)
	require.NoError(t, db.Model(&domain.User{}).Where("id = ?", inA.ID).Update("department_id", deptA.ID).Error)
	require.NoError(t, db.Model(&domain.User{}).Where("id = ?", inB.ID).Update("department_id", deptB.ID).Error)

	b, err := svc.Get(ctx, "department", deptA.ID)
	require.NoError(t, err)
	require.Len(t, b.Entries, 1)
	assert.Equal(t, inA.ID, b.Entries[0].UserID)
}
