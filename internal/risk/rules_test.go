package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	t.Run("no signals scores zero", func(t *testing.T) {
		score, tags, reasons := Score(Signals{})

		assert.Zero(t, score)
		assert.Empty(t, tags)
		assert.Empty(t, reasons)
		assert.NotNil(t, tags)
		assert.NotNil(t, reasons)
	})

	t.Run("individual weights", func(t *testing.T) {
		cases := []struct {
			signals Signals
			want    int
		}{
			{Signals{CustomerDuplicate: true}, 20},
			{Signals{AddressDuplicate: true}, 15},
			{Signals{POBox: true}, 30},
			{Signals{PostalMismatch: true}, 10},
			{Signals{InvalidEmail: true}, 25},
			{Signals{InvalidPhone: true}, 25},
			{Signals{DuplicateOrder: true}, 50},
			{Signals{CashOnDelivery: true}, 20},
			{Signals{HighValue: true}, 15},
		}
		for _, tc := range cases {
			score, _, _ := Score(tc.signals)
			assert.Equal(t, tc.want, score)
		}
	})

	t.Run("clamps at 100", func(t *testing.T) {
		score, _, _ := Score(Signals{
			CustomerDuplicate: true,
			AddressDuplicate:  true,
			POBox:             true,
			PostalMismatch:    true,
			InvalidEmail:      true,
			InvalidPhone:      true,
			DuplicateOrder:    true,
			CashOnDelivery:    true,
			HighValue:         true,
		})

		assert.Equal(t, 100, score)
	})

	t.Run("monotonic in triggered signals", func(t *testing.T) {
		base, _, _ := Score(Signals{CashOnDelivery: true})
		more, _, _ := Score(Signals{CashOnDelivery: true, HighValue: true})
		evenMore, _, _ := Score(Signals{CashOnDelivery: true, HighValue: true, DuplicateOrder: true})

		assert.LessOrEqual(t, base, more)
		assert.LessOrEqual(t, more, evenMore)
	})

	t.Run("tags and reasons follow rule order", func(t *testing.T) {
		_, tags, reasons := Score(Signals{HighValue: true, POBox: true, DuplicateOrder: true})

		assert.Equal(t, []string{"po_box", "duplicate_order", "high_value"}, tags)
		assert.Equal(t, []string{
			string(ReasonPOBox),
			string(ReasonDuplicateOrder),
			string(ReasonHighValue),
		}, reasons)
	})
}

func TestActionFor(t *testing.T) {
	const hold, block = 40, 70

	assert.Equal(t, ActionApprove, ActionFor(0, hold, block))
	assert.Equal(t, ActionApprove, ActionFor(40, hold, block))
	assert.Equal(t, ActionHold, ActionFor(41, hold, block))
	assert.Equal(t, ActionHold, ActionFor(70, hold, block))
	assert.Equal(t, ActionBlock, ActionFor(71, hold, block))
	assert.Equal(t, ActionBlock, ActionFor(100, hold, block))

	// Monotonic over the whole range.
	prev := ActionApprove
	rank := map[Action]int{ActionApprove: 0, ActionHold: 1, ActionBlock: 2}
	for score := 0; score <= 100; score++ {
		action := ActionFor(score, hold, block)
		assert.GreaterOrEqual(t, rank[action], rank[prev])
		prev = action
	}
}
