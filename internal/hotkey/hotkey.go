// Package hotkey watches the physical keyboard for global key combinations.
package hotkey

import (
	"strings"
	"sync"

	"github.com/edaniels/golog"
	"go.viam.com/utils"
)

// Manager handles global hotkey registration and matching
type Manager struct {
	mu           sync.RWMutex
	hotkeys      []*registeredHotkey
	currentState map[string]bool // keys currently held
	logger       golog.Logger
	stop         func()
}

type registeredHotkey struct {
	parts    []string // e.g., ["CTRL", "ALT", "ESC"]
	original string
	callback func()
	active   bool // all parts held; fires again only after a release
}

// NewManager creates a new hotkey manager
func NewManager(logger golog.Logger) *Manager {
	return &Manager{
		currentState: make(map[string]bool),
		logger:       logger,
	}
}

// ParseHotkey splits "Ctrl+Alt+Esc" into upper-case key names.
func ParseHotkey(s string) []string {
	parts := strings.Split(strings.ToUpper(s), "+")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Register registers a hotkey string (e.g. "Ctrl+Alt+Shift+Esc") and a callback.
func (m *Manager) Register(hotkeyStr string, callback func()) (int, error) {
	parts := ParseHotkey(hotkeyStr)
	if len(parts) == 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.hotkeys = append(m.hotkeys, &registeredHotkey{
		parts:    parts,
		original: hotkeyStr,
		callback: callback,
	})

	return len(m.hotkeys) - 1, nil
}

// Clear removes all registered hotkeys
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = nil
}

// UpdateState records a key transition and fires every hotkey that just
// became fully held.
func (m *Manager) UpdateState(key string, isDown bool) {
	key = strings.ToUpper(key)

	m.mu.Lock()
	if isDown {
		m.currentState[key] = true
	} else {
		delete(m.currentState, key)
	}

	var fire []*registeredHotkey
	for _, hk := range m.hotkeys {
		held := true
		for _, part := range hk.parts {
			if !m.currentState[part] {
				held = false
				break
			}
		}
		if held && !hk.active {
			fire = append(fire, hk)
		}
		hk.active = held
	}
	m.mu.Unlock()

	for _, hk := range fire {
		m.logger.Infow("Hotkey triggered", "hotkey", hk.original)
		utils.PanicCapturingGo(hk.callback)
	}
}

// Start installs the platform keyboard hook.
func (m *Manager) Start() error {
	return m.startPlatform()
}

// Stop removes the keyboard hook if one is running.
func (m *Manager) Stop() {
	m.mu.Lock()
	stop := m.stop
	m.stop = nil
	m.mu.Unlock()
	if stop != nil {
		stop()
	}
}
