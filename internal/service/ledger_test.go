package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-taskhub/internal/domain"
	"campus-taskhub/internal/service"
)

func TestLedgerDebitCredit(t *testing.T) {
	db := newTestDB(t)
	led := service.NewLedger(testEco())
	u := mkUser(t, db, 50, 0, domain.LevelBronze)

	require.NoError(t, led.Debit(db, u.ID, 10, domain.TxTaskPosted, "posted", nil))
	assert.Equal(t, 40, pointBalance(t, db, u.ID))

	require.NoError(t, led.Credit(db, u.ID, 15, domain.TxTaskCompleted, "completed", nil))
	assert.Equal(t, 55, pointBalance(t, db, u.ID))

	// 余额与流水之和偏离 = 台账坏了
	assert.Equal(t, 5, txSum(t, db, u.ID))
}

func TestLedgerDebitInsufficient(t *testing.T) {
	db := newTestDB(t)
	led := service.NewLedger(testEco())
	u := mkUser(t, db, 5, 0, domain.LevelBronze)

	err := led.Debit(db, u.ID, 10, domain.TxTaskPosted, "posted", nil)
	assert.ErrorIs(t, err, service.ErrInsufficientPoints)

	// 失败不能留半笔
	assert.Equal(t, 5, pointBalance(t, db, u.ID))
	assert.Equal(t, 0, txSum(t, db, u.ID))
}

func TestLedgerDebitUnknownUser(t *testing.T) {
	db := newTestDB(t)
	led := service.NewLedger(testEco())

	assert.ErrorIs(t, led.Debit(db, "nope", 10, domain.TxTaskPosted, "x", nil), service.ErrNotFound)
	assert.ErrorIs(t, led.Credit(db, "nope", 10, domain.TxTaskCompleted, "x", nil), service.ErrNotFound)
}

func TestLedgerRejectsNonPositiveAmounts(t *testing.T) {
	db := newTestDB(t)
	led := service.NewLedger(testEco())
	u := mkUser(t, db, 50, 0, domain.LevelBronze)

	assert.ErrorIs(t, led.Debit(db, u.ID, 0, domain.TxTaskPosted, "x", nil), service.ErrValidation)
	assert.ErrorIs(t, led.Credit(db, u.ID, -3, domain.TxTaskCompleted, "x", nil), service.ErrValidation)
}

func TestAdjustReputationRecomputesLevel(t *testing.T) {
	db := newTestDB(t)
	led := service.NewLedger(testEco())
	u := mkUser(t, db, 0, 48, domain.LevelNew)

	// 48 + 5 = 53，跨过 BRONZE 门槛
	require.NoError(t, led.AdjustReputation(db, u.ID, 5, domain.RepTaskCompleted, "completed", nil, nil))

	var got domain.User
	require.NoError(t, db.First(&got, "id = ?", u.ID).Error)
	assert.Equal(t, 53, got.Reputation)
	assert.Equal(t, domain.LevelBronze, got.Level)

	// 负向调整可以降级
	require.NoError(t, led.AdjustReputation(db, u.ID, -10, domain.RepNegativeRating, "bad rating", nil, nil))
	require.NoError(t, db.First(&got, "id = ?", u.ID).Error)
	assert.Equal(t, 43, got.Reputation)
	assert.Equal(t, domain.LevelNew, got.Level)

	var n int64
	require.NoError(t, db.Model(&domain.ReputationHistory{}).Where("user_id = ?", u.ID).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}

func TestAdjustReputationZeroIsNoop(t *testing.T) {
	db := newTestDB(t)
	led := service.NewLedger(testEco())
	u := mkUser(t, db, 0, 10, domain.LevelNew)

	require.NoError(t, led.AdjustReputation(db, u.ID, 0, domain.RepAdminAdjust, "noop", nil, nil))

	var n int64
	require.NoError(t, db.Model(&domain.ReputationHistory{}).Where("user_id = ?", u.ID).Count(&n).Error)
	assert.EqualValues(t, 0, n)
}
