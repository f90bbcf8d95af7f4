package normalizer

import (
	"testing"

	"tekken-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	ewgf := []domain.MatchRecord{
		{Timestamp: 100, Result: domain.ResultWin, Score: "3-1", OpponentName: "Bad Guy", CharacterOpponent: "King", Source: domain.SourceEwgf},
		{Timestamp: 300, Result: domain.ResultLoss, Score: "0-3", OpponentName: "Ghost", OpponentRank: "Fujin", Source: domain.SourceEwgf},
	}
	wavu := []domain.MatchRecord{
		{Timestamp: 300, Result: domain.ResultLoss, Score: "0-3", OpponentName: "ghost!", Source: domain.SourceWavu},
		{Timestamp: 100, Result: domain.ResultWin, Score: "3-1", OpponentName: "Bad-Guy", OpponentRank: "Garyu", Source: domain.SourceWavu},
		{Timestamp: 200, Result: domain.ResultWin, Score: "3-2", OpponentName: "Only Wavu", Source: domain.SourceWavu},
	}

	merged := Merge(ewgf, wavu)
	require.Len(t, merged, 3)

	assert.Equal(t, []int64{300, 200, 100}, []int64{merged[0].Timestamp, merged[1].Timestamp, merged[2].Timestamp})

	assert.Equal(t, domain.SourceEwgf, merged[0].Source)
	assert.Equal(t, "Fujin", merged[0].OpponentRank)

	assert.Equal(t, domain.SourceWavu, merged[1].Source)

	// first seen entry is kept, only the missing rank comes from the duplicate
	assert.Equal(t, domain.SourceEwgf, merged[2].Source)
	assert.Equal(t, "Bad Guy", merged[2].OpponentName)
	assert.Equal(t, "King", merged[2].CharacterOpponent)
	assert.Equal(t, "Garyu", merged[2].OpponentRank)
}

func TestMerge_DifferentScoresAreDifferentMatches(t *testing.T) {
	merged := Merge([]domain.MatchRecord{
		{Timestamp: 100, Score: "3-1", OpponentName: "a", Result: domain.ResultWin},
		{Timestamp: 100, Score: "3-2", OpponentName: "a", Result: domain.ResultWin},
	})
	assert.Len(t, merged, 2)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge())
	assert.Empty(t, Merge(nil, nil))
}
