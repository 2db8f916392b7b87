package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"canvaschat/client"
	"canvaschat/config"
	"canvaschat/model"
	"canvaschat/storage"
	"canvaschat/ui"
)

const Version = "v0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	config.InitDebugLog(cfg.DataDir())
	if config.DebugLog != nil {
		config.DebugLog.Printf("canvaschat %s starting, server=%s", Version, cfg.ServerURL())
	}

	stateStore, err := storage.NewStateStore(cfg.DataDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open state database: %v\n", err)
		os.Exit(1)
	}
	defer stateStore.Close()

	greeting := cfg.Greeting
	if greeting == "" {
		greeting = model.DefaultGreeting
	}
	chatStore := model.NewChatStore(greeting)

	if state, found, err := stateStore.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load saved state: %v\n", err)
		os.Exit(1)
	} else if found {
		chatStore.Restore(state)
	}

	chatStore.SetPersistFunc(func(state model.PersistedState) {
		if err := stateStore.Save(state); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[Main] State save failed: %v", err)
		}
	})

	cl := client.New(cfg.ServerURL())

	p := tea.NewProgram(
		ui.NewAppView(chatStore, cl),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
