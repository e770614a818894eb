package account

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/iotaledger/hive.go/ierrors"
)

// StateFileName is the name of the account state file inside the storage path.
const StateFileName = "account.json"

// State is the persisted part of an account.
type State struct {
	Alias            string    `json:"alias"`
	BIP32Path        string    `json:"bip32Path"`
	LastAddressIndex uint32    `json:"lastAddressIndex"`
	CreatedAt        time.Time `json:"createdAt"`
}

func readState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, ierrors.Wrapf(err, "failed to parse account state %s", path)
	}

	return state, nil
}

func writeState(path string, state *State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return ierrors.Wrap(err, "failed to create account directory")
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return ierrors.Wrap(err, "failed to encode account state")
	}

	//nolint:gosec // the state holds no secrets
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ierrors.Wrap(err, "failed to write account state")
	}

	return nil
}
