// Package secretstore keeps the wallet mnemonic in a password protected file.
//
// The mnemonic is sealed with XChaCha20-Poly1305 under a key derived from the password
// with argon2id. The file is a small JSON envelope with base58 encoded binary fields.
package secretstore

import (
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/hive.go/runtime/syncutils"
	"github.com/iotaledger/iota.go/v4/wallet"
)

const (
	// FileName is the default name of the secret store inside the storage path.
	FileName = "wallet.secret"

	envelopeVersion = 1
	saltLength      = 16
)

var (
	ErrStoreExists   = ierrors.New("secret store already exists")
	ErrStoreNotFound = ierrors.New("secret store not found")
	ErrWrongPassword = ierrors.New("wrong secret store password")
	ErrEmptyPassword = ierrors.New("secret store password must not be empty")
	ErrInvalidKDF    = ierrors.New("invalid key derivation parameters")
)

// bounds of the argon2id parameters, memory is in KiB
const (
	maxKDFTime    = 64
	maxKDFMemory  = 1024 * 1024
	maxKDFThreads = 64
)

type kdfParams struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
}

func (p kdfParams) validate() error {
	switch {
	case p.Time == 0 || p.Time > maxKDFTime:
		return ierrors.Wrapf(ErrInvalidKDF, "time %d not in [1, %d]", p.Time, maxKDFTime)
	case p.Threads == 0 || p.Threads > maxKDFThreads:
		return ierrors.Wrapf(ErrInvalidKDF, "threads %d not in [1, %d]", p.Threads, maxKDFThreads)
	case p.Memory < 8*uint32(p.Threads) || p.Memory > maxKDFMemory:
		return ierrors.Wrapf(ErrInvalidKDF, "memory %d KiB not in [%d, %d]", p.Memory, 8*uint32(p.Threads), maxKDFMemory)
	default:
		return nil
	}
}

type envelope struct {
	Version    int       `json:"version"`
	KDF        kdfParams `json:"kdf"`
	Salt       string    `json:"salt"`
	Nonce      string    `json:"nonce"`
	Ciphertext string    `json:"ciphertext"`
}

// Store is an opened secret store.
type Store struct {
	path     string
	mnemonic string
	password string
	mutex    syncutils.RWMutex

	optsKDFTime    uint32
	optsKDFMemory  uint32
	optsKDFThreads uint8
}

// WithKDFParameters sets the argon2id cost parameters used when sealing the store.
func WithKDFParameters(time uint32, memory uint32, threads uint8) options.Option[Store] {
	return func(s *Store) {
		s.optsKDFTime = time
		s.optsKDFMemory = memory
		s.optsKDFThreads = threads
	}
}

func newStore(path string, password string, opts ...options.Option[Store]) *Store {
	return options.Apply(&Store{
		path:           path,
		password:       password,
		optsKDFTime:    3,
		optsKDFMemory:  64 * 1024,
		optsKDFThreads: 4,
	}, opts)
}

// Path returns the default location of the secret store inside the storage directory.
func Path(storagePath string) string {
	return filepath.Join(storagePath, FileName)
}

// Exists reports whether a secret store file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

// Create seals the mnemonic with the password and writes a new secret store to path.
// An empty mnemonic creates a store holding a freshly generated one.
func Create(path string, password string, mnemonic string, opts ...options.Option[Store]) (*Store, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	if Exists(path) {
		return nil, ierrors.Wrapf(ErrStoreExists, "path %s", path)
	}

	if mnemonic == "" {
		keyManager, err := wallet.NewKeyManagerFromRandom(wallet.DefaultIOTAPath)
		if err != nil {
			return nil, ierrors.Wrap(err, "failed to generate mnemonic")
		}
		mnemonic = keyManager.Mnemonic().String()
	} else if _, err := wallet.NewKeyManagerFromMnemonic(mnemonic, wallet.DefaultIOTAPath); err != nil {
		return nil, ierrors.Wrap(err, "invalid mnemonic")
	}

	s := newStore(path, password, opts...)
	s.mnemonic = mnemonic

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, ierrors.Wrap(err, "failed to create secret store directory")
	}

	if err := s.write(); err != nil {
		return nil, err
	}

	return s, nil
}

// Open unseals the secret store at path.
func Open(path string, password string, opts ...options.Option[Store]) (*Store, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ierrors.Wrapf(ErrStoreNotFound, "path %s", path)
		}

		return nil, ierrors.Wrap(err, "failed to read secret store")
	}

	env := &envelope{}
	if err := json.Unmarshal(data, env); err != nil {
		return nil, ierrors.Wrap(err, "failed to parse secret store")
	}

	if env.Version != envelopeVersion {
		return nil, ierrors.Errorf("unsupported secret store version %d", env.Version)
	}

	if err := env.KDF.validate(); err != nil {
		return nil, err
	}

	salt, err := base58.Decode(env.Salt)
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to decode salt")
	}

	nonce, err := base58.Decode(env.Nonce)
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to decode nonce")
	}

	ciphertext, err := base58.Decode(env.Ciphertext)
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to decode ciphertext")
	}

	aead, err := chacha20poly1305.NewX(deriveKey(password, salt, env.KDF))
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to initialize cipher")
	}

	if len(nonce) != aead.NonceSize() {
		return nil, ierrors.Errorf("invalid nonce length %d", len(nonce))
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassword
	}

	s := newStore(path, password, append([]options.Option[Store]{WithKDFParameters(env.KDF.Time, env.KDF.Memory, env.KDF.Threads)}, opts...)...)
	s.mnemonic = string(plaintext)

	return s, nil
}

// OpenOrCreate opens the store at path or, if there is none yet, creates it from the mnemonic.
func OpenOrCreate(path string, password string, mnemonic string, opts ...options.Option[Store]) (store *Store, created bool, err error) {
	if Exists(path) {
		store, err = Open(path, password, opts...)

		return store, false, err
	}

	store, err = Create(path, password, mnemonic, opts...)

	return store, err == nil, err
}

// Path returns the file the store is persisted in.
func (s *Store) Path() string {
	return s.path
}

// Mnemonic returns the unsealed BIP-39 mnemonic.
func (s *Store) Mnemonic() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.mnemonic
}

// KeyManager returns a key manager for the stored mnemonic and the given BIP-32 path.
func (s *Store) KeyManager(bip32Path string) (*wallet.KeyManager, error) {
	return wallet.NewKeyManagerFromMnemonic(s.Mnemonic(), bip32Path)
}

// ChangePassword re-seals the store with a new password.
func (s *Store) ChangePassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous := s.password
	s.password = password

	if err := s.write(); err != nil {
		s.password = previous

		return err
	}

	return nil
}

func (s *Store) write() error {
	kdf := kdfParams{
		Time:    s.optsKDFTime,
		Memory:  s.optsKDFMemory,
		Threads: s.optsKDFThreads,
	}
	if err := kdf.validate(); err != nil {
		return err
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return ierrors.Wrap(err, "failed to generate salt")
	}

	aead, err := chacha20poly1305.NewX(deriveKey(s.password, salt, kdf))
	if err != nil {
		return ierrors.Wrap(err, "failed to initialize cipher")
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return ierrors.Wrap(err, "failed to generate nonce")
	}

	data, err := json.MarshalIndent(&envelope{
		Version:    envelopeVersion,
		KDF:        kdf,
		Salt:       base58.Encode(salt),
		Nonce:      base58.Encode(nonce),
		Ciphertext: base58.Encode(aead.Seal(nil, nonce, []byte(s.mnemonic), nil)),
	}, "", "  ")
	if err != nil {
		return ierrors.Wrap(err, "failed to encode secret store")
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return ierrors.Wrap(err, "failed to write secret store")
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return ierrors.Wrapf(err, "failed to move secret store to %s", s.path)
	}

	return nil
}

func deriveKey(password string, salt []byte, params kdfParams) []byte {
	return argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, chacha20poly1305.KeySize)
}
