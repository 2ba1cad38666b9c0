package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheRepository_FirstValueWins(t *testing.T) {
	repo := NewCacheRepository(openTestDB(t))

	yMin, yMax := -0.6, -0.2
	require.NoError(t, repo.Put("deontic|stole bread", -0.4, &yMin, &yMax))

	// A second Put under the same key is a no-op
	require.NoError(t, repo.Put("deontic|stole bread", 0.9, nil, nil))

	e, err := repo.Get("deontic|stole bread")
	require.NoError(t, err)
	require.NotNil(t, e)
	require.Equal(t, -0.4, e.Y)
	require.Equal(t, yMin, *e.YMin)
	require.Equal(t, yMax, *e.YMax)
}

func TestCacheRepository_MissReturnsNil(t *testing.T) {
	repo := NewCacheRepository(openTestDB(t))

	e, err := repo.Get("utilitarian|never seen")
	require.NoError(t, err)
	require.Nil(t, e)
}

func TestCacheRepository_ClearAndCount(t *testing.T) {
	repo := NewCacheRepository(openTestDB(t))

	require.NoError(t, repo.Put("deontic|a", 0.1, nil, nil))
	require.NoError(t, repo.Put("utilitarian|a", 0.2, nil, nil))

	n, err := repo.Count()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	keys, err := repo.Keys()
	require.NoError(t, err)
	require.Equal(t, []string{"utilitarian|a", "deontic|a"}, keys)

	removed, err := repo.Clear()
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	n, err = repo.Count()
	require.NoError(t, err)
	require.Zero(t, n)

	// A cleared key accepts a new value
	require.NoError(t, repo.Put("deontic|a", 0.7, nil, nil))
	e, err := repo.Get("deontic|a")
	require.NoError(t, err)
	require.Equal(t, 0.7, e.Y)
}
