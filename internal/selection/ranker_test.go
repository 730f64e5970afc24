package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/movers/internal/contracts"
)

func symbols(snaps []contracts.Snapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.Symbol
	}
	return out
}

func TestRankKey_Sort(t *testing.T) {
	input := []contracts.Snapshot{
		snap(t, "CCC", "103", "100"),
		snap(t, "BBB", "110", "100"),
		snap(t, "AAA", "110", "100"),
		snap(t, "DDD", "500", "490"),
	}

	byChange := append([]contracts.Snapshot(nil), input...)
	RankByChangePercent.Sort(byChange)
	assert.Equal(t, []string{"AAA", "BBB", "CCC", "DDD"}, symbols(byChange))

	byPrice := append([]contracts.Snapshot(nil), input...)
	RankByPrice.Sort(byPrice)
	assert.Equal(t, []string{"DDD", "AAA", "BBB", "CCC"}, symbols(byPrice))
}

func TestRankKey_TopDoesNotMutate(t *testing.T) {
	input := []contracts.Snapshot{
		snap(t, "LOW", "101", "100"),
		snap(t, "HIGH", "120", "100"),
	}

	top := RankByChangePercent.Top(input, 1)
	assert.Equal(t, []string{"HIGH"}, symbols(top))
	assert.Equal(t, []string{"LOW", "HIGH"}, symbols(input))

	assert.Len(t, RankByChangePercent.Top(input, 0), 2)
}

func TestParseRankKey(t *testing.T) {
	k, err := ParseRankKey("")
	require.NoError(t, err)
	assert.Equal(t, RankByChangePercent, k)

	k, err = ParseRankKey("PRICE")
	require.NoError(t, err)
	assert.Equal(t, RankByPrice, k)

	_, err = ParseRankKey("volume")
	assert.Error(t, err)
}
