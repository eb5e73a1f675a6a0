// Package storage persists store state as versioned JSON snapshots under
// named slots. Stores save after every successful mutation and load once at
// startup; a failed mutation never reaches the snapshotter.
package storage

import (
	"encoding/json"
	"fmt"
)

// Version is the current snapshot envelope version. Version 1 needs no
// migration; the hook exists so later versions can rewrite old state.
const Version = 1

type Snapshotter interface {
	// Save serializes state into the named slot, replacing what was there.
	Save(slot string, state interface{}) error
	// Load fills state from the named slot. Returns false when the slot
	// is empty, which is not an error (first run).
	Load(slot string, state interface{}) (bool, error)
}

type envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

func seal(state interface{}) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("storage: can't marshal state: %w", err)
	}
	return json.Marshal(envelope{Version: Version, State: raw})
}

func unseal(data []byte, state interface{}) error {
	env := envelope{}
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("storage: can't parse snapshot envelope: %w", err)
	}
	migrated, err := migrate(env)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(migrated.State, state); err != nil {
		return fmt.Errorf("storage: can't unmarshal snapshot state: %w", err)
	}
	return nil
}

func migrate(env envelope) (envelope, error) {
	switch env.Version {
	case Version:
		return env, nil
	default:
		return env, fmt.Errorf("storage: unsupported snapshot version %d", env.Version)
	}
}
