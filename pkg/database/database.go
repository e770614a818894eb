// Package database opens the key value stores the wallet persists its bookkeeping in.
package database

import (
	"os"
	"strings"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/kvstore/mapdb"
	"github.com/iotaledger/hive.go/kvstore/rocksdb"
	"github.com/iotaledger/hive.go/runtime/ioutils"
)

// Version is the schema version of a store.
type Version byte

// Engine is the key value store implementation backing a store.
type Engine string

const (
	// EngineMapDB keeps the store in memory.
	EngineMapDB Engine = "mapdb"
	// EngineRocksDB persists the store in a directory.
	EngineRocksDB Engine = "rocksdb"
)

var (
	// ErrUnknownEngine is returned for engine names that are not supported.
	ErrUnknownEngine = ierrors.New("unknown database engine")
	// ErrMissingDirectory is returned if a persistent engine is opened without a directory.
	ErrMissingDirectory = ierrors.New("database directory is missing")
)

// EngineFromString parses an engine name.
func EngineFromString(engine string) (Engine, error) {
	switch Engine(strings.ToLower(engine)) {
	case EngineMapDB:
		return EngineMapDB, nil
	case EngineRocksDB:
		return EngineRocksDB, nil
	default:
		return "", ierrors.Wrapf(ErrUnknownEngine, "%q", engine)
	}
}

// Config describes where and how a store is opened.
type Config struct {
	Engine    Engine
	Directory string
	Version   Version
}

var dbVersionKey = []byte("db_version")

// Store is an opened key value store.
type Store struct {
	kvstore.KVStore

	path string
}

// Open opens the store described by config.
func Open(config Config) (*Store, error) {
	switch config.Engine {
	case EngineMapDB:
		store := &Store{KVStore: mapdb.NewMapDB()}

		return store, CheckVersion(store, config.Version)
	case EngineRocksDB:
		if config.Directory == "" {
			return nil, ErrMissingDirectory
		}

		return openRocksDB(config.Directory, config.Version)
	default:
		return nil, ierrors.Wrapf(ErrUnknownEngine, "%q", config.Engine)
	}
}

func openRocksDB(path string, version Version) (*Store, error) {

	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, ierrors.Wrapf(err, "failed to create database directory %s", path)
	}

	db, err := rocksdb.CreateDB(path)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to open database %s", path)
	}

	store := &Store{KVStore: rocksdb.New(db), path: path}
	if err := CheckVersion(store, version); err != nil {
		_ = store.Close()

		return nil, err
	}

	return store, nil
}

// Path returns the directory of a persistent store or an empty string for an in-memory one.
func (s *Store) Path() string {
	return s.path
}

// Size returns the size of a persistent store on disk.
func (s *Store) Size() (int64, error) {
	if s.path == "" {
		return 0, nil
	}

	return ioutils.FolderSize(s.path)
}

// Close flushes and closes the store.
func (s *Store) Close() error {
	if err := s.KVStore.Flush(); err != nil {
		return ierrors.Wrap(err, "failed to flush database")
	}

	return s.KVStore.Close()
}

// CheckVersion checks whether the store is compatible with the given schema version.
// A new store gets the version set.
func CheckVersion(store kvstore.KVStore, version Version) error {
	entry, err := store.Get(dbVersionKey)
	if ierrors.Is(err, kvstore.ErrKeyNotFound) {
		return store.Set(dbVersionKey, []byte{byte(version)})
	}
	if err != nil {
		return err
	}

	if len(entry) != 1 {
		return ierrors.New("no database version was persisted")
	}

	if storedVersion := Version(entry[0]); storedVersion != version {
		return ierrors.Errorf("incompatible database versions: supported version: %d, version of database: %d", version, storedVersion)
	}

	return nil
}
