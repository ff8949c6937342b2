package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedDelta(t *testing.T) {
	d100 := decimal.NewFromInt(100)
	c40 := decimal.NewFromInt(40)

	t.Run("debit-natural account grows on debit", func(t *testing.T) {
		delta := SignedDelta(BalanceSideDebit, d100, c40)
		assert.True(t, delta.Equal(decimal.NewFromInt(60)))
	})

	t.Run("credit-natural account grows on credit", func(t *testing.T) {
		delta := SignedDelta(BalanceSideCredit, d100, c40)
		assert.True(t, delta.Equal(decimal.NewFromInt(-60)))
	})

	t.Run("pure credit movement", func(t *testing.T) {
		delta := SignedDelta(BalanceSideCredit, decimal.Zero, c40)
		assert.True(t, delta.Equal(c40))
	})
}

func TestNewLedgerAccount(t *testing.T) {
	companyID := uuid.New()

	t.Run("creates account with explicit side", func(t *testing.T) {
		acc, err := NewLedgerAccount(companyID, "1000", "Cash", BalanceSideDebit)
		require.NoError(t, err)
		assert.Equal(t, BalanceSideDebit, acc.Side)
		assert.Equal(t, companyID, acc.CompanyID)
	})

	t.Run("rejects missing code", func(t *testing.T) {
		_, err := NewLedgerAccount(companyID, "", "Cash", BalanceSideDebit)
		assert.Error(t, err)
	})

	t.Run("rejects invalid side", func(t *testing.T) {
		_, err := NewLedgerAccount(companyID, "1000", "Cash", BalanceSide("BOTH"))
		assert.Error(t, err)
	})
}

func TestLedgerBalance(t *testing.T) {
	t.Run("starts at opening balance", func(t *testing.T) {
		b := NewLedgerBalance(uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(500))
		assert.True(t, b.RunningBalance.Equal(decimal.NewFromInt(500)))
	})

	t.Run("applies signed deltas", func(t *testing.T) {
		b := NewLedgerBalance(uuid.New(), uuid.New(), uuid.New(), decimal.Zero)
		b.Apply(decimal.NewFromInt(100))
		b.Apply(decimal.NewFromInt(-30))
		assert.True(t, b.RunningBalance.Equal(decimal.NewFromInt(70)))
	})
}

func TestVoucherSequence(t *testing.T) {
	t.Run("take advances the counter", func(t *testing.T) {
		seq := NewVoucherSequence(uuid.New(), VoucherTypeJournal, uuid.New())
		assert.Equal(t, int64(1), seq.Take())
		assert.Equal(t, int64(2), seq.Take())
		assert.Equal(t, int64(3), seq.NextNumber)
	})
}

func TestIdempotencyRecord(t *testing.T) {
	t.Run("matches identical payload hash", func(t *testing.T) {
		rec, err := NewIdempotencyRecord(uuid.New(), "req-1", "abc123", uuid.New())
		require.NoError(t, err)
		assert.True(t, rec.Matches("abc123"))
		assert.False(t, rec.Matches("def456"))
	})

	t.Run("rejects empty key", func(t *testing.T) {
		_, err := NewIdempotencyRecord(uuid.New(), "", "abc123", uuid.New())
		assert.Error(t, err)
	})
}
