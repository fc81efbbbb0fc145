package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// StateData holds the data stored in the state.json file.
//
// StateData 保存存储在 state.json 文件中的数据。
type StateData struct {
	Favorites []string `json:"favorites"`
}

// Favorites tracks which figures the user has marked, keyed by figure
// ID, and persists them across runs.
//
// Favorites 记录用户收藏的手办（以 ID 为键），并在多次运行之间持久保存。
type Favorites struct {
	path string
	ids  map[string]bool
}

// NewFavorites creates an empty favorites set backed by the given
// state file path.
func NewFavorites(path string) *Favorites {
	return &Favorites{path: path, ids: make(map[string]bool)}
}

// Has reports whether the figure is marked as a favorite.
func (f *Favorites) Has(id string) bool {
	return f.ids[id]
}

// Toggle flips the favorite mark for a figure and reports the new
// state.
func (f *Favorites) Toggle(id string) bool {
	if f.ids[id] {
		delete(f.ids, id)
		return false
	}
	f.ids[id] = true
	return true
}

// Len returns how many figures are marked.
func (f *Favorites) Len() int {
	return len(f.ids)
}

// Filter returns the subset of items that are marked, preserving
// order.
func (f *Favorites) Filter(items []Amiibo) []Amiibo {
	var out []Amiibo
	for _, a := range items {
		if f.ids[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

// Load reads the favorites from the state.json file. A missing file
// is not an error; it just means nothing is marked yet.
//
// Load 从 state.json 文件读取收藏。文件不存在不算错误，
// 只表示还没有任何收藏。
func (f *Favorites) Load() error {
	if _, err := os.Stat(f.path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("could not read state file: %v", err)
	}

	var stateData StateData
	if err := json.Unmarshal(data, &stateData); err != nil {
		if len(data) == 0 {
			return nil
		}
		return fmt.Errorf("could not decode state file: %v", err)
	}

	f.ids = make(map[string]bool, len(stateData.Favorites))
	for _, id := range stateData.Favorites {
		f.ids[id] = true
	}
	return nil
}

// Save writes the favorites to the state.json file.
//
// Save 将收藏写入 state.json 文件。
func (f *Favorites) Save() error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create state directory: %v", err)
	}

	ids := make([]string, 0, len(f.ids))
	for id := range f.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	jsonData, err := json.MarshalIndent(StateData{Favorites: ids}, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode state data: %v", err)
	}

	if err := os.WriteFile(f.path, jsonData, 0644); err != nil {
		return fmt.Errorf("could not write state file: %v", err)
	}

	return nil
}
