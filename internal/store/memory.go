package store

import "github.com/vbazhenov/go-bound-cache/internal/model"

// Memory keeps payloads on the items themselves. It exists so that the
// engine runs the same store/retrieve path for both variants and only the
// backend differs.
type Memory struct{}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Write(it *model.Item, stored []byte) error {
	it.Payload = stored
	return nil
}

func (m *Memory) Read(it *model.Item) ([]byte, error) {
	return it.Payload, nil
}

func (m *Memory) Remove(it *model.Item) {
	it.Payload = nil
}

func (m *Memory) Clear() {}
