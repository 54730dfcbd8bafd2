// Package config provides configuration management for the patch and its
// tools.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// FileName is the configuration file name.
const FileName = "gmpatch.json"

// Address is a code address in the host image. It is stored in JSON as a
// hex string such as "0x1401A4000".
type Address uint64

func (a Address) String() string {
	return "0x" + strings.ToUpper(strconv.FormatUint(uint64(a), 16))
}

// ParseAddress parses a hex address with or without the 0x prefix.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "bad address %q", s)
	}
	return Address(v), nil
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Config represents the application configuration
type Config struct {
	// Patch contains settings for the injected patch
	Patch PatchConfig `json:"patch"`

	// Compiler contains settings for the compile tool
	Compiler CompilerConfig `json:"compiler"`

	// Bench contains settings for the scripting bench
	Bench BenchConfig `json:"bench"`
}

// PatchConfig configures the injected patch.
type PatchConfig struct {
	// ScriptName is the script whose bytecode is replaced
	ScriptName string `json:"script_name"`

	// PatchPath is the compiled replacement, relative to the working directory
	PatchPath string `json:"patch_path"`

	// Debug enables debug output
	Debug bool `json:"debug"`

	// Hooks are the host functions the patch intercepts or calls
	Hooks HookAddresses `json:"hooks"`
}

// HookAddresses locates the engine functions in one build of the host.
type HookAddresses struct {
	// Loader is the library execute function (intercepted)
	Loader Address `json:"loader"`

	// MachineLib registers the built-in machine library (intercepted)
	MachineLib Address `json:"machine_lib"`

	// RegisterLibrary adds native functions to a table (called)
	RegisterLibrary Address `json:"register_library"`
}

// CompilerConfig configures "gmtool compile".
type CompilerConfig struct {
	// Backend is the external compiler executable
	Backend string `json:"backend"`

	// Source is the script to compile
	Source string `json:"source"`

	// Output is where the compiled library is written
	Output string `json:"output"`
}

// BenchConfig configures the scripting bench.
type BenchConfig struct {
	// Script is the Lua script the bench runs
	Script string `json:"script"`

	// EscapeHotkey cancels all queued input (e.g. "Ctrl+Alt+Shift+Esc")
	EscapeHotkey string `json:"escape_hotkey,omitempty"`

	// ShowTray shows the tray icon
	ShowTray bool `json:"show_tray"`
}

// DefaultConfig returns a new Config with the values the patch shipped with
func DefaultConfig() *Config {
	return &Config{
		Patch: PatchConfig{
			ScriptName: "Sidequest_ArcheryRange_TargetManager.gm",
			PatchPath:  "patch_.gmb",
			Debug:      true,
			Hooks: HookAddresses{
				Loader:          0x1401A4000,
				MachineLib:      0x14014DCD0,
				RegisterLibrary: 0x140137F20,
			},
		},
		Compiler: CompilerConfig{
			Backend: "gmcompile.exe",
			Source:  "patch.gm",
			Output:  "patch.gmb",
		},
		Bench: BenchConfig{
			Script:       "bench.lua",
			EscapeHotkey: "Ctrl+Alt+Shift+Esc",
			ShowTray:     true,
		},
	}
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
	logger     golog.Logger
}

// NewManager creates a configuration manager using the per-user config
// directory.
func NewManager(logger golog.Logger) (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath, logger), nil
}

// NewManagerAt creates a configuration manager for an explicit file.
func NewManagerAt(path string, logger golog.Logger) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
		logger:     logger,
	}
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "gmpatch")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "gmpatch")
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", errors.Wrap(err, "creating config directory")
	}

	return filepath.Join(configDir, FileName), nil
}

// Path returns the configuration file path.
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk
func (m *Manager) Load() error {
	m.mu.Lock()

	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		// No config file, use defaults
		m.mu.Unlock()
		m.logger.Debugw("Config: no configuration file, using defaults", "path", m.configPath)
		return nil
	}
	if err != nil {
		m.mu.Unlock()
		return errors.Wrap(err, "reading config")
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		m.mu.Unlock()
		return errors.Wrapf(err, "parsing %s", m.configPath)
	}
	m.config = cfg
	onChanged := m.onChanged
	m.mu.Unlock()

	if onChanged != nil {
		onChanged()
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	m.logger.Infof("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	return errors.Wrap(os.WriteFile(m.configPath, data, 0644), "writing config")
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Set updates the configuration
func (m *Manager) Set(config *Config) {
	m.mu.Lock()
	m.config = config
	onChanged := m.onChanged
	m.mu.Unlock()
	if onChanged != nil {
		onChanged()
	}
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
