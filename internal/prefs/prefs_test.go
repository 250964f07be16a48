package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "prefs.bolt")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_Defaults(t *testing.T) {
	s, _ := setupTestStore(t)

	id, err := s.DefaultTableID()
	require.NoError(t, err)
	assert.Nil(t, id)

	noRepeat, err := s.NoRepeat()
	require.NoError(t, err)
	assert.True(t, noRepeat)
}

func TestStore_DefaultTableID(t *testing.T) {
	s, _ := setupTestStore(t)

	require.NoError(t, s.SetDefaultTableID(7))
	id, err := s.DefaultTableID()
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, int64(7), *id)

	require.NoError(t, s.ClearDefaultTableID())
	id, err = s.DefaultTableID()
	require.NoError(t, err)
	assert.Nil(t, id)

	assert.Error(t, s.SetDefaultTableID(0))
}

func TestStore_NoRepeat(t *testing.T) {
	s, _ := setupTestStore(t)

	require.NoError(t, s.SetNoRepeat(false))
	noRepeat, err := s.NoRepeat()
	require.NoError(t, err)
	assert.False(t, noRepeat)

	require.NoError(t, s.SetNoRepeat(true))
	noRepeat, err = s.NoRepeat()
	require.NoError(t, err)
	assert.True(t, noRepeat)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	s, path := setupTestStore(t)

	require.NoError(t, s.SetDefaultTableID(3))
	require.NoError(t, s.SetNoRepeat(false))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	p, err := reopened.Snapshot()
	require.NoError(t, err)
	require.NotNil(t, p.DefaultTableID)
	assert.Equal(t, int64(3), *p.DefaultTableID)
	assert.False(t, p.NoRepeat)
}
