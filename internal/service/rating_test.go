package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-taskhub/internal/domain"
	"campus-taskhub/internal/service"
)

func TestSubmitRating(t *testing.T) {
	db := newTestDB(t)
	eco := testEco()
	svc := service.NewRatingService(db, service.NewLedger(eco), eco)
	ctx := context.Background()

	dept := mkDept(t, db)
	requester := mkUser(t, db, 100, 60, domain.LevelBronze)
	acceptor := mkUser(t, db, 0, 10, domain.LevelNew)
	task := mkTask(t, db, requester.ID, dept.ID, domain.TaskCompleted, &acceptor.ID)

	r, err := svc.Submit(ctx, requester.ID, task.ID, 5, "又快又好")
	require.NoError(t, err)
	assert.Equal(t, requester.ID, r.GiverID)
	assert.Equal(t, acceptor.ID, r.ReceiverID)

	// 好评给对端 +3 信誉
	var got domain.User
	require.NoError(t, db.First(&got, "id = ?", acceptor.ID).Error)
	assert.Equal(t, 13, got.Reputation)

	var hist []domain.ReputationHistory
	require.NoError(t, db.Where("user_id = ?", acceptor.ID).Find(&hist).Error)
	require.Len(t, hist, 1)
	assert.Equal(t, domain.RepPositiveRating, hist[0].Type)
	require.NotNil(t, hist[0].RatingID)
	assert.Equal(t, r.ID, *hist[0].RatingID)

	// 同一 (task, giver) 只能评一次
	_, err = svc.Submit(ctx, requester.ID, task.ID, 4, "")
	assert.ErrorIs(t, err, service.ErrAlreadyRated)

	// 对端可以反向评
	_, err = svc.Submit(ctx, acceptor.ID, task.ID, 5, "")
	require.NoError(t, err)
}

func TestSubmitNegativeRating(t *testing.T) {
	db := newTestDB(t)
	eco := testEco()
	svc := service.NewRatingService(db, service.NewLedger(eco), eco)

	dept := mkDept(t, db)
	requester := mkUser(t, db, 100, 60, domain.LevelBronze)
	acceptor := mkUser(t, db, 0, 10, domain.LevelNew)
	task := mkTask(t, db, requester.ID, dept.ID, domain.TaskCompleted, &acceptor.ID)

	_, err := svc.Submit(context.Background(), requester.ID, task.ID, 1, "放了鸽子")
	require.NoError(t, err)

	var got domain.User
	require.NoError(t, db.First(&got, "id = ?", acceptor.ID).Error)
	assert.Equal(t, 8, got.Reputation)
}

func TestSubmitNeutralRatingLeavesReputation(t *testing.T) {
	db := newTestDB(t)
	eco := testEco()
	svc := service.NewRatingService(db, service.NewLedger(eco), eco)

	dept := mkDept(t, db)
	requester := mkUser(t, db, 100, 60, domain.LevelBronze)
	acceptor := mkUser(t, db, 0, 10, domain.LevelNew)
	task := mkTask(t, db, requester.ID, dept.ID, domain.TaskCompleted, &acceptor.ID)

	_, err := svc.Submit(context.Background(), requester.ID, task.ID, 3, "")
	require.NoError(t, err)

	var got domain.User
	require.NoError(t, db.First(&got, "id = ?", acceptor.ID).Error)
	assert.Equal(t, 10, got.Reputation)

	var n int64
	require.NoError(t, db.Model(&domain.ReputationHistory{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
}

func TestSubmitRatingGuards(t *testing.T) {
	db := newTestDB(t)
	eco := testEco()
	svc := service.NewRatingService(db, service.NewLedger(eco), eco)
	ctx := context.Background()

	dept := mkDept(t, db)
	requester := mkUser(t, db, 100, 60, domain.LevelBronze)
	acceptor := mkUser(t, db, 0, 0, domain.LevelNew)
	outsider := mkUser(t, db, 0, 0, domain.LevelNew)

	t.Run("score out of range", func(t *testing.T) {
		task := mkTask(t, db, requester.ID, dept.ID, domain.TaskCompleted, &acceptor.ID)
		_, err := svc.Submit(ctx, requester.ID, task.ID, 0, "")
		assert.ErrorIs(t, err, service.ErrValidation)
		_, err = svc.Submit(ctx, requester.ID, task.ID, 6, "")
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("task not completed", func(t *testing.T) {
		task := mkTask(t, db, requester.ID, dept.ID, domain.TaskAccepted, &acceptor.ID)
		_, err := svc.Submit(ctx, requester.ID, task.ID, 5, "")
		assert.ErrorIs(t, err, service.ErrWrongState)
	})

	t.Run("outsider cannot rate", func(t *testing.T) {
		task := mkTask(t, db, requester.ID, dept.ID, domain.TaskCompleted, &acceptor.ID)
		_, err := svc.Submit(ctx, outsider.ID, task.ID, 5, "")
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("unknown task", func(t *testing.T) {
		_, err := svc.Submit(ctx, requester.ID, "nope", 5, "")
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
