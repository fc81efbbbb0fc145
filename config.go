package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	tea "github.com/charmbracelet/bubbletea"
)

// Key is a custom type to handle single keys or a list of keys in the
// TOML file.
type Key []string

// UnmarshalTOML allows the Key type to be parsed from either a string
// or a list of strings.
func (k *Key) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		*k = []string{v}
		return nil
	case []interface{}:
		keys := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("key must be a string or a list of strings")
			}
			keys = append(keys, s)
		}
		*k = keys
		return nil
	}
	return fmt.Errorf("key must be a string or a list of strings")
}

// Matches reports whether a key press matches any binding for the
// action.
func (k Key) Matches(msg tea.KeyMsg) bool {
	pressed := msg.String()
	for _, keyStr := range k {
		if normalizeKey(keyStr) == pressed {
			return true
		}
	}
	return false
}

// Config holds the application's configuration, loaded from a TOML
// file.
type Config struct {
	App    AppConfig `toml:"app"`
	Keymap Keymap    `toml:"keymap"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	// APIBaseURL overrides the AmiiboAPI endpoint, mostly for
	// mirrors.
	APIBaseURL string `toml:"APIBaseURL"`

	// Database is the path of the local catalog cache.
	Database string `toml:"Database"`

	// State is the path of the JSON state file (favorites).
	State string `toml:"State"`

	// PageSize is how many figures one catalog page holds.
	PageSize int `toml:"PageSize"`

	// CacheTTLHours is how long a cached catalog counts as fresh.
	// Zero disables automatic refresh.
	CacheTTLHours int `toml:"CacheTTLHours"`

	// Notifications enables a desktop notification when a refresh
	// completes.
	Notifications bool `toml:"Notifications"`
}

// Keymap defines all the keybindings for the browser.
type Keymap struct {
	Global GlobalKeymap `toml:"global"`
	Browse BrowseKeymap `toml:"browse"`
}

// GlobalKeymap holds keybindings that work everywhere.
type GlobalKeymap struct {
	Quit Key `toml:"Quit"`
}

// BrowseKeymap holds keybindings for the catalog grid.
type BrowseKeymap struct {
	NavUp          Key `toml:"NavUp"`
	NavDown        Key `toml:"NavDown"`
	NavLeft        Key `toml:"NavLeft"`
	NavRight       Key `toml:"NavRight"`
	Search         Key `toml:"Search"`
	ConfirmSearch  Key `toml:"ConfirmSearch"`
	EscapeSearch   Key `toml:"EscapeSearch"` // Handles both leaving search input and clearing search results
	Refresh        Key `toml:"Refresh"`
	Retry          Key `toml:"Retry"`
	ToggleFavorite Key `toml:"ToggleFavorite"`
	FavoritesOnly  Key `toml:"FavoritesOnly"`
}

// namedKeys are the non-character key names accepted in the config.
// They match the strings Bubble Tea reports for key presses, with
// "space" as a readable alias.
var namedKeys = map[string]string{
	"enter":     "enter",
	"space":     " ",
	"backspace": "backspace",
	"esc":       "esc",
	"tab":       "tab",
	"up":        "up",
	"down":      "down",
	"left":      "left",
	"right":     "right",
	"pgup":      "pgup",
	"pgdown":    "pgdown",
	"home":      "home",
	"end":       "end",
	"ctrl+c":    "ctrl+c",
	"ctrl+r":    "ctrl+r",
	"ctrl+f":    "ctrl+f",
}

// normalizeKey converts a key string from the config to the string
// Bubble Tea reports for that press.
func normalizeKey(s string) string {
	s = strings.ToLower(s)
	if v, ok := namedKeys[s]; ok {
		return v
	}
	return s
}

// validKey reports whether a config key string is recognized.
func validKey(s string) bool {
	s = strings.ToLower(s)
	if _, ok := namedKeys[s]; ok {
		return true
	}
	return len([]rune(s)) == 1
}

// getDefaultConfig returns a Config struct with the default settings
// and keybindings.
func getDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			APIBaseURL:    defaultAPIBaseURL,
			Database:      "~/.config/AB/catalog.db",
			State:         "~/.config/AB/state.json",
			PageSize:      30,
			CacheTTLHours: 24,
			Notifications: false,
		},
		Keymap: Keymap{
			Global: GlobalKeymap{
				Quit: Key{"ctrl+c"},
			},
			Browse: BrowseKeymap{
				NavUp:          Key{"k", "up"},
				NavDown:        Key{"j", "down"},
				NavLeft:        Key{"h", "left"},
				NavRight:       Key{"l", "right"},
				Search:         Key{"/", "f"},
				ConfirmSearch:  Key{"enter"},
				EscapeSearch:   Key{"esc"}, // Consolidated escape/clear search
				Refresh:        Key{"ctrl+r"},
				Retry:          Key{"r"},
				ToggleFavorite: Key{"space"},
				FavoritesOnly:  Key{"*"},
			},
		},
	}
}

// LoadConfig loads the configuration from ~/.config/AB/config.toml,
// or from path when it is non-empty. If the file doesn't exist, it is
// created with default values.
func LoadConfig(path string) (*Config, error) {
	configFile := path
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not get user home directory: %v", err)
		}
		configDir := filepath.Join(home, ".config", "AB")
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("could not create config directory: %v", err)
		}
		configFile = filepath.Join(configDir, "config.toml")
	}

	defaultConf := getDefaultConfig()

	var config *Config
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		// File does not exist, create it with default config
		buf := new(bytes.Buffer)
		if err := toml.NewEncoder(buf).Encode(defaultConf); err != nil {
			return nil, fmt.Errorf("could not encode default config: %v", err)
		}
		if err := os.WriteFile(configFile, buf.Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("could not write default config file: %v", err)
		}
		config = defaultConf
	} else {
		// File exists, load it
		var loaded Config
		if _, err := toml.DecodeFile(configFile, &loaded); err != nil {
			return nil, fmt.Errorf("could not decode config file: %v", err)
		}
		fillConfigDefaults(&loaded, defaultConf)
		config = &loaded
	}

	// Validate the loaded keymap
	if err := validateKeymap(config.Keymap); err != nil {
		return nil, err
	}
	return config, nil
}

// fillConfigDefaults backfills settings a hand-edited config file left
// out, so a partial [app] section keeps working.
func fillConfigDefaults(config, defaults *Config) {
	if config.App.APIBaseURL == "" {
		config.App.APIBaseURL = defaults.App.APIBaseURL
	}
	if config.App.Database == "" {
		config.App.Database = defaults.App.Database
	}
	if config.App.State == "" {
		config.App.State = defaults.App.State
	}
	if config.App.PageSize <= 0 {
		config.App.PageSize = defaults.App.PageSize
	}
	if config.App.CacheTTLHours < 0 {
		config.App.CacheTTLHours = defaults.App.CacheTTLHours
	}
	fillKeymapDefaults(&config.Keymap.Global, &defaults.Keymap.Global)
	fillKeymapDefaults(&config.Keymap.Browse, &defaults.Keymap.Browse)
}

// fillKeymapDefaults copies default bindings into unset fields of a
// keymap section.
func fillKeymapDefaults(section, defaults interface{}) {
	v := reflect.ValueOf(section).Elem()
	d := reflect.ValueOf(defaults).Elem()
	for i := 0; i < v.NumField(); i++ {
		if keys, ok := v.Field(i).Interface().(Key); ok && len(keys) == 0 {
			v.Field(i).Set(d.Field(i))
		}
	}
}

// validateKeymap checks for duplicate or invalid keybindings.
func validateKeymap(keymap Keymap) error {
	sections := []interface{}{keymap.Global, keymap.Browse}
	sectionNames := []string{"Global", "Browse"}

	for i, section := range sections {
		assignedKeys := make(map[string]string)
		v := reflect.ValueOf(section)
		t := v.Type()

		for j := 0; j < v.NumField(); j++ {
			field := v.Field(j)
			fieldName := t.Field(j).Name

			if keys, ok := field.Interface().(Key); ok {
				for _, keyStr := range keys {
					if !validKey(keyStr) {
						return fmt.Errorf("invalid key '%s' in [%s] %s", keyStr, sectionNames[i], fieldName)
					}
					normalized := normalizeKey(keyStr)
					if existing, duplicated := assignedKeys[normalized]; duplicated {
						return fmt.Errorf("key conflict in [%s]: key '%s' is assigned to both '%s' and '%s'", sectionNames[i], keyStr, existing, fieldName)
					}
					assignedKeys[normalized] = fieldName
				}
			}
		}
	}
	return nil
}

// expandPath resolves a leading ~/ against the user's home directory.
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %v", err)
	}
	return filepath.Join(home, path[2:]), nil
}
