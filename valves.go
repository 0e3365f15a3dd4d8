package weaver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ValveStore provides thread-safe access to plugin valves, the host
// runtime's term for the validated configuration of a tool. Valves are
// stored as a JSON file in the host-assigned data directory and cached in
// memory. By convention admin-level valves use plain keys
// ("default_timezone") and user-level overrides use "user_" keys
// ("user_timezone").
type ValveStore interface {
	// Get retrieves a valve value by key. Returns nil if the key doesn't
	// exist.
	Get(key string) (interface{}, error)

	// GetString retrieves a string valve. Returns empty string if not found.
	GetString(key string) (string, error)

	// GetInt retrieves an integer valve. Returns 0 if not found.
	GetInt(key string) (int, error)

	// GetBool retrieves a boolean valve. Returns false if not found.
	GetBool(key string) (bool, error)

	// GetFloat retrieves a float64 valve. Returns 0.0 if not found.
	GetFloat(key string) (float64, error)

	// Set stores a valve value. Value will be serialized to JSON.
	Set(key string, value interface{}) error

	// Delete removes a valve by key.
	Delete(key string) error

	// GetAll returns all valves as a map.
	GetAll() (map[string]interface{}, error)

	// Save persists valves to disk atomically.
	Save() error

	// Load reloads valves from disk.
	Load() error

	// ResolveString applies the override chain: the explicit argument wins,
	// then the first non-empty string valve among keys, then fallback.
	ResolveString(explicit string, keys []string, fallback string) string
}

type valveStore struct {
	mu       sync.RWMutex
	cache    map[string]interface{}
	filePath string
	dirty    bool
}

// NewValveStore creates a valve store for a plugin. The valve file lives
// at dataDir/{plugin}_valves.json.
func NewValveStore(dataDir, pluginName string) (ValveStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("dataDir cannot be empty")
	}
	if pluginName == "" {
		return nil, fmt.Errorf("pluginName cannot be empty")
	}

	normalized := strings.TrimSpace(strings.ToLower(strings.ReplaceAll(pluginName, "_", "-")))
	filePath := filepath.Join(dataDir, fmt.Sprintf("%s_valves.json", normalized))
	vs := &valveStore{
		cache:    make(map[string]interface{}),
		filePath: filePath,
	}

	if _, err := os.Stat(filePath); err == nil {
		if err := vs.Load(); err != nil {
			return nil, fmt.Errorf("failed to load existing valves: %w", err)
		}
	}

	return vs, nil
}

func (vs *valveStore) Get(key string) (interface{}, error) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	value, exists := vs.cache[key]
	if !exists {
		return nil, nil
	}
	return value, nil
}

func (vs *valveStore) GetString(key string) (string, error) {
	value, err := vs.Get(key)
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}

	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("valve %q is not a string (type: %T)", key, value)
	}
	return str, nil
}

func (vs *valveStore) GetInt(key string) (int, error) {
	value, err := vs.Get(key)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return 0, nil
	}

	// JSON unmarshals numbers as float64
	switch v := value.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("valve %q is not an integer (type: %T)", key, value)
	}
}

func (vs *valveStore) GetBool(key string) (bool, error) {
	value, err := vs.Get(key)
	if err != nil {
		return false, err
	}
	if value == nil {
		return false, nil
	}

	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("valve %q is not a boolean (type: %T)", key, value)
	}
	return b, nil
}

func (vs *valveStore) GetFloat(key string) (float64, error) {
	value, err := vs.Get(key)
	if err != nil {
		return 0.0, err
	}
	if value == nil {
		return 0.0, nil
	}

	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0.0, fmt.Errorf("valve %q is not a number (type: %T)", key, value)
	}
}

func (vs *valveStore) Set(key string, value interface{}) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	vs.cache[key] = value
	vs.dirty = true

	// Auto-save on set for durability
	return vs.saveUnlocked()
}

func (vs *valveStore) Delete(key string) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	delete(vs.cache, key)
	vs.dirty = true

	return vs.saveUnlocked()
}

func (vs *valveStore) GetAll() (map[string]interface{}, error) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	// Return a copy to prevent external modifications
	result := make(map[string]interface{}, len(vs.cache))
	for k, v := range vs.cache {
		result[k] = v
	}
	return result, nil
}

func (vs *valveStore) Save() error {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.saveUnlocked()
}

// saveUnlocked performs the actual save. Caller must hold the write lock.
func (vs *valveStore) saveUnlocked() error {
	if !vs.dirty {
		return nil
	}

	data, err := json.MarshalIndent(vs.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal valves: %w", err)
	}

	// Atomic write: temp file then rename, so the valve file is never
	// half-written.
	tempPath := vs.filePath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp valve file: %w", err)
	}

	if err := os.Rename(tempPath, vs.filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename valve file: %w", err)
	}

	vs.dirty = false
	return nil
}

func (vs *valveStore) Load() error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	data, err := os.ReadFile(vs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			vs.cache = make(map[string]interface{})
			vs.dirty = false
			return nil
		}
		return fmt.Errorf("failed to read valve file: %w", err)
	}

	var valves map[string]interface{}
	if err := json.Unmarshal(data, &valves); err != nil {
		return fmt.Errorf("failed to parse valve file: %w", err)
	}

	vs.cache = valves
	vs.dirty = false
	return nil
}

func (vs *valveStore) ResolveString(explicit string, keys []string, fallback string) string {
	if explicit != "" {
		return explicit
	}
	for _, key := range keys {
		if v, err := vs.GetString(key); err == nil && v != "" {
			return v
		}
	}
	return fallback
}

// ResolveString applies the override chain when a valve store may be nil
// (plugin running without host context): the explicit argument wins, then
// valves in key order, then the fallback.
func ResolveString(vs ValveStore, explicit string, keys []string, fallback string) string {
	if vs == nil {
		if explicit != "" {
			return explicit
		}
		return fallback
	}
	return vs.ResolveString(explicit, keys, fallback)
}
