package slashing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/historical"
)

func TestOffenceKinds(t *testing.T) {
	testCases := []struct {
		kind      OffenceKind
		id        string
		tagPrefix string
		fraction  Perbill
		disable   DisableStrategy
	}{
		{ForInvalid, "disputes:invalid", "DisputeForInvalid", PerbillOne, DisableAlways},
		{AgainstValid, "disputes:valid::", "DisputeAgainstValid", PerbillOne / 100, DisableNever},
	}
	for _, tc := range testCases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			assert.Equal(t, tc.id, tc.kind.ID().String())
			assert.Equal(t, tc.tagPrefix, tc.kind.TagPrefix())
			assert.Equal(t, tc.disable, tc.kind.DisableStrategy())

			for _, offenders := range []uint32{0, 1, 7, 1000} {
				for _, setSize := range []uint32{1, 10, 297, 1 << 20} {
					assert.Equal(t, tc.fraction, tc.kind.SlashFraction(offenders, setSize))
				}
			}
		})
	}

	assert.False(t, OffenceKind(2).Valid())
	assert.Equal(t, "OffenceKind(2)", OffenceKind(2).String())
}

func TestOffence(t *testing.T) {
	slot := TimeSlot{SessionIndex: 4, CandidateHash: crypto.HashData([]byte("candidate"))}
	offence := NewOffence(AgainstValid, slot, 300, identification(1), identification(2))

	assert.Equal(t, AgainstValid.ID(), offence.ID())
	assert.EqualValues(t, 4, offence.SessionIndex())
	assert.Equal(t, PerbillFromPercent(1), offence.SlashFraction())
	assert.Equal(t, DisableNever, offence.DisableStrategy())
	assert.Equal(t, []historical.IdentificationTuple{identification(1), identification(2)}, offence.Offenders)
}

func TestPerbill(t *testing.T) {
	assert.Equal(t, PerbillOne, PerbillFromPercent(100))
	assert.Equal(t, PerbillOne, PerbillFromPercent(250))
	assert.Equal(t, Perbill(10_000_000), PerbillFromPercent(1))
	assert.Equal(t, "1.0000000%", PerbillFromPercent(1).String())
	assert.Equal(t, "0.0000001%", Perbill(1).String())
}

func TestTimeSlotCompare(t *testing.T) {
	low := crypto.Hash{0x01}
	high := crypto.Hash{0x02}

	testCases := []struct {
		name string
		a, b TimeSlot
		want int
	}{
		{"equal", TimeSlot{3, low}, TimeSlot{3, low}, 0},
		{"session first", TimeSlot{2, high}, TimeSlot{3, low}, -1},
		{"then hash", TimeSlot{3, high}, TimeSlot{3, low}, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Compare(tc.b))
			assert.Equal(t, -tc.want, tc.b.Compare(tc.a))
		})
	}
}

func TestCallInfo(t *testing.T) {
	call := reportCall(1, crypto.Hash{}, ForInvalid, 2)

	info := call.Info(LinearWeights{Base: 1000, PerValidator: 10})
	assert.Equal(t, Weight(1000+10*testValidators), info.Weight)
	assert.False(t, info.PaysFee)

	assert.Equal(t, Weight(0), call.Info(ZeroWeights{}).Weight)
}
