package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-taskhub/internal/domain"
	"campus-taskhub/internal/service"
)

func TestCheckCooldown(t *testing.T) {
	eco := testEco()
	eco.CooldownMinutes = 60
	pol := service.NewPolicy(eco)
	now := time.Now()

	t.Run("never posted", func(t *testing.T) {
		assert.Equal(t, 0, pol.CheckCooldown(&domain.User{}, now))
	})

	t.Run("still cooling", func(t *testing.T) {
		last := now.Add(-10 * time.Minute)
		wait := pol.CheckCooldown(&domain.User{LastTaskPostAt: &last}, now)
		assert.Equal(t, 50, wait)
	})

	t.Run("cooldown passed", func(t *testing.T) {
		last := now.Add(-61 * time.Minute)
		assert.Equal(t, 0, pol.CheckCooldown(&domain.User{LastTaskPostAt: &last}, now))
	})

	t.Run("disabled", func(t *testing.T) {
		off := service.NewPolicy(testEco()) // CooldownMinutes = 0
		last := now.Add(-time.Minute)
		assert.Equal(t, 0, off.CheckCooldown(&domain.User{LastTaskPostAt: &last}, now))
	})
}

func TestAllowCompletion(t *testing.T) {
	db := newTestDB(t)
	eco := testEco()
	pol := service.NewPolicy(eco)
	now := time.Now()

	dept := mkDept(t, db)
	a := mkUser(t, db, 0, 0, domain.LevelNew)
	b := mkUser(t, db, 0, 0, domain.LevelNew)
	c := mkUser(t, db, 0, 0, domain.LevelNew)

	// a↔b 双向共 5 单，到顶
	for i := 0; i < 3; i++ {
		mkTask(t, db, a.ID, dept.ID, domain.TaskCompleted, &b.ID)
	}
	for i := 0; i < 2; i++ {
		mkTask(t, db, b.ID, dept.ID, domain.TaskCompleted, &a.ID)
	}

	ok, err := pol.AllowCompletion(db, a.ID, b.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	// 反向同样被拦
	ok, err = pol.AllowCompletion(db, b.ID, a.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	// 换一个对端不受影响
	ok, err = pol.AllowCompletion(db, a.ID, c.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	// 窗口外的完成不计数
	old := now.Add(-48 * time.Hour)
	require.NoError(t, db.Model(&domain.Task{}).
		Where("requester_id = ? AND acceptor_id = ?", a.ID, b.ID).
		Update("completed_at", old).Error)
	ok, err = pol.AllowCompletion(db, a.ID, b.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)
}
