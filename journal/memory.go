package journal

import "sync"

// Memory is an in-process Store for tests and ephemeral paper sessions.
type Memory struct {
	mu          sync.Mutex
	fills       []Fill
	positions   map[string]Position
	account     Account
	performance []PerformanceRecord
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{positions: make(map[string]Position)}
}

func (m *Memory) Apply(mut Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fills = append(m.fills, mut.Fill)
	if mut.Position != nil {
		m.positions[mut.Position.Symbol] = *mut.Position
	} else if mut.Removed != "" {
		delete(m.positions, mut.Removed)
	}
	m.account = mut.Account
	return nil
}

func (m *Memory) SaveAccount(a Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.account = a
	return nil
}

func (m *Memory) RecordPerformance(rec PerformanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.performance = append(m.performance, rec)
	return nil
}

func (m *Memory) Close() error { return nil }

// Fills returns a copy of the recorded fill history.
func (m *Memory) Fills() []Fill {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Fill, len(m.fills))
	copy(out, m.fills)
	return out
}

// Performance returns a copy of the performance history.
func (m *Memory) Performance() []PerformanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PerformanceRecord, len(m.performance))
	copy(out, m.performance)
	return out
}

// Account returns the last saved account row.
func (m *Memory) Account() Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account
}

// Positions returns a copy of the position table.
func (m *Memory) Positions() map[string]Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Position, len(m.positions))
	for k, v := range m.positions {
		out[k] = v
	}
	return out
}
