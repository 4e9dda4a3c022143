package workspace

import (
	"sync"
	"time"

	"bey-cash/internal/drafts"
	"bey-cash/internal/gateway"
)

// Manager hands out one editor per user.
type Manager struct {
	mu        sync.Mutex
	gw        gateway.Gateway
	draftsFor func(userID uint) drafts.Store
	debounce  time.Duration
	editors   map[uint]*slot
}

type slot struct {
	editor   *Editor
	recorder *Recorder
}

func NewManager(gw gateway.Gateway, draftsFor func(userID uint) drafts.Store, debounce time.Duration) *Manager {
	return &Manager{
		gw:        gw,
		draftsFor: draftsFor,
		debounce:  debounce,
		editors:   make(map[uint]*slot),
	}
}

// Get returns the editor of userID and the recorder its notices go to.
func (m *Manager) Get(userID uint) (*Editor, *Recorder) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.editors[userID]
	if !ok {
		rec := &Recorder{}
		s = &slot{
			editor:   NewEditor(m.gw, m.draftsFor(userID), rec, m.debounce),
			recorder: rec,
		}
		m.editors[userID] = s
	}
	return s.editor, s.recorder
}

// Release flushes and forgets the editor of userID, e.g. on logout.
func (m *Manager) Release(userID uint) {
	m.mu.Lock()
	s, ok := m.editors[userID]
	delete(m.editors, userID)
	m.mu.Unlock()

	if ok {
		s.editor.FlushDraft()
		s.editor.Close()
	}
}

// Close writes every pending draft and stops all editors.
func (m *Manager) Close() {
	m.mu.Lock()
	slots := make([]*slot, 0, len(m.editors))
	for _, s := range m.editors {
		slots = append(slots, s)
	}
	m.editors = make(map[uint]*slot)
	m.mu.Unlock()

	for _, s := range slots {
		s.editor.FlushDraft()
		s.editor.Close()
	}
}
