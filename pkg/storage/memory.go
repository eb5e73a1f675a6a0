package storage

import "sync"

// Memory is a map-backed Snapshotter for tests and throwaway sessions. It
// still goes through the JSON envelope so version handling gets exercised.
type Memory struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{slots: make(map[string][]byte)}
}

func (m *Memory) Save(slot string, state interface{}) error {
	data, err := seal(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = data
	return nil
}

func (m *Memory) Load(slot string, state interface{}) (bool, error) {
	m.mu.Lock()
	data, ok := m.slots[slot]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, unseal(data, state)
}
