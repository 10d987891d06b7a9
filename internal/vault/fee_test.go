package vault

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeFee(t *testing.T) {
	cases := []struct {
		name   string
		amount uint64
		bps    uint64
		want   uint64
	}{
		{"round amount at 2%", 100_000000, 200, 2_000000},
		{"truncating amount at 2%", 33_330000, 200, 666_600},
		{"floor not round-to-nearest", 33_333333, 200, 666_666},
		{"sub-unit amount", 49, 200, 0},
		{"one unit above threshold", 50, 200, 1},
		{"zero rate", 1_000_000000, 0, 0},
		{"max rate", 1_000_000000, MaxFeeBps, 100_000000},
		{"zero amount", 0, 200, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeFee(tc.amount, tc.bps))
		})
	}
}

func TestComputeFeeNoOverflow(t *testing.T) {
	// Near the uint64 ceiling the naive amount*bps product overflows; the
	// split computation must still return the exact floor.
	amount := uint64(math.MaxUint64) - 3
	for _, bps := range []uint64{1, 200, MaxFeeBps} {
		want := new(big.Int).Mul(new(big.Int).SetUint64(amount), new(big.Int).SetUint64(bps))
		want.Div(want, big.NewInt(FeeDenominator))
		assert.Equal(t, want.Uint64(), ComputeFee(amount, bps), "bps %d", bps)
	}
}
