package database_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/kvstore/mapdb"
	"github.com/iotaledger/purity/pkg/database"
)

func TestCheckVersion(t *testing.T) {
	store := mapdb.NewMapDB()

	require.NoError(t, database.CheckVersion(store, 1))
	require.NoError(t, database.CheckVersion(store, 1))
	require.Error(t, database.CheckVersion(store, 2))
}

func TestOpenInMemory(t *testing.T) {
	store, err := database.Open(database.Config{Engine: database.EngineMapDB, Version: 1})
	require.NoError(t, err)
	require.Empty(t, store.Path())

	size, err := store.Size()
	require.NoError(t, err)
	require.Zero(t, size)

	require.NoError(t, store.Set([]byte("key"), []byte("value")))
	value, err := store.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), value)

	require.NoError(t, store.Close())
}

func TestEngineFromString(t *testing.T) {
	engine, err := database.EngineFromString("RocksDB")
	require.NoError(t, err)
	require.Equal(t, database.EngineRocksDB, engine)

	engine, err = database.EngineFromString("mapdb")
	require.NoError(t, err)
	require.Equal(t, database.EngineMapDB, engine)

	_, err = database.EngineFromString("pebble")
	require.ErrorIs(t, err, database.ErrUnknownEngine)
}

func TestOpenInvalidConfig(t *testing.T) {
	_, err := database.Open(database.Config{Engine: database.EngineRocksDB, Version: 1})
	require.ErrorIs(t, err, database.ErrMissingDirectory)

	_, err = database.Open(database.Config{Engine: "pebble", Version: 1})
	require.ErrorIs(t, err, database.ErrUnknownEngine)
}
