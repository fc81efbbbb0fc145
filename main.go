package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const version = "0.3.1"

// ---------- 入口 ----------

func main() {
	configPath := ""
	for _, arg := range os.Args[1:] {
		switch arg {
		case "-v", "--version":
			fmt.Println("AB " + version)
			return
		case "-h", "--help":
			fmt.Fprintf(os.Stderr, "Usage: %s [config.toml]\n", os.Args[0])
			return
		default:
			configPath = arg
		}
	}

	// Debug logging goes to a file; the terminal belongs to the TUI.
	if os.Getenv("AB_DEBUG") != "" {
		f, err := tea.LogToFile("ab-debug.log", "ab")
		if err != nil {
			die(err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	// 1. 配置
	cfg, err := LoadConfig(configPath)
	if err != nil {
		die(err)
	}

	// 2. 本地缓存
	dbPath, err := expandPath(cfg.App.Database)
	if err != nil {
		die(err)
	}
	cache, err := OpenCache(dbPath)
	if err != nil {
		die(err)
	}
	defer cache.Close()

	// 3. 收藏
	statePath, err := expandPath(cfg.App.State)
	if err != nil {
		die(err)
	}
	favorites := NewFavorites(statePath)
	if err := favorites.Load(); err != nil {
		die(err)
	}

	// 4. 仓库
	api := NewAPIClient(cfg.App.APIBaseURL)
	ttl := time.Duration(cfg.App.CacheTTLHours) * time.Hour
	repo := NewCatalogRepository(api, cache, ttl)

	lastSync := func() time.Time {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		t, err := cache.LastSync(ctx)
		if err != nil {
			return time.Time{}
		}
		return t
	}

	var notify func()
	if cfg.App.Notifications {
		notify = func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			count, err := cache.Count(ctx)
			if err != nil {
				count = 0
			}
			sendNotification("Catalog refreshed", fmt.Sprintf("%d figures in the catalog", count))
		}
	}

	// 5. 启动 Bubble Tea
	m := NewBrowseModel(repo, favorites, cfg, lastSync, notify)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		die(err)
	}
}

func die(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
