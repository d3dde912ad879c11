// Package bootstrap loads content, Lua tactics and AI domains from configuration
// and assembles the pieces every binary needs.
package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/encounter/internal/config"
	"github.com/cory-johannsen/encounter/internal/game/ai"
	"github.com/cory-johannsen/encounter/internal/game/content"
	"github.com/cory-johannsen/encounter/internal/game/dice"
	"github.com/cory-johannsen/encounter/internal/scripting"
)

// GlobalScriptsDir is the subdirectory of the AI scripts root loaded into the
// global Lua scope shared by every domain.
const GlobalScriptsDir = "global"

// Engine bundles loaded content and the AI decider.
type Engine struct {
	Library  *content.Library
	Decider  *ai.Decider
	Registry *ai.Registry
	Scripts  *scripting.Manager
}

// Close releases the Lua VMs.
func (e *Engine) Close() {
	if e.Scripts != nil {
		e.Scripts.Close()
	}
}

// Load reads content from cfg and wires AI domains to their Lua scopes.
//
// Precondition: cfg.Root must be a readable directory.
// Postcondition: Returns an Engine or the first load error. Missing AI
// directories mean no domains (every monster uses the baseline policy).
func Load(cfg config.ContentConfig, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	lib, err := content.LoadDir(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	logger.Info("content loaded",
		zap.String("root", cfg.Root),
		zap.Int("encounters", len(lib.EncounterIDs())),
		zap.Duration("elapsed", time.Since(start)),
	)

	scripts := scripting.NewManager(logger)
	registry := ai.NewRegistry()
	if err := loadAI(cfg, scripts, registry, logger); err != nil {
		scripts.Close()
		return nil, err
	}
	if missing := registry.Unknown(lib.Tactics()); len(missing) > 0 {
		logger.Warn("monsters reference unknown ai domains; they will use the baseline policy",
			zap.Strings("domains", missing),
		)
	}
	return &Engine{
		Library:  lib,
		Decider:  ai.NewDecider(registry, logger),
		Registry: registry,
		Scripts:  scripts,
	}, nil
}

func loadAI(cfg config.ContentConfig, scripts *scripting.Manager, registry *ai.Registry, logger *zap.Logger) error {
	if cfg.AIScripts != "" {
		global := filepath.Join(cfg.AIScripts, GlobalScriptsDir)
		if exists(global) {
			if err := scripts.LoadGlobal(global, cfg.InstructionLimit); err != nil {
				return err
			}
		}
	}
	if cfg.AIDomains == "" || !exists(cfg.AIDomains) {
		logger.Info("no ai domains configured")
		return nil
	}

	domains, err := ai.LoadDomains(cfg.AIDomains)
	if err != nil {
		return fmt.Errorf("loading ai domains: %w", err)
	}
	for _, d := range domains {
		if cfg.AIScripts != "" {
			dir := filepath.Join(cfg.AIScripts, d.ID)
			if exists(dir) {
				if err := scripts.LoadScope(d.ID, dir, cfg.InstructionLimit); err != nil {
					return err
				}
			}
		}
		if err := registry.Register(d, scripts); err != nil {
			return fmt.Errorf("registering ai domain %q: %w", d.ID, err)
		}
	}
	logger.Info("ai domains loaded", zap.Strings("domains", registry.Domains()))
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// SessionSources returns a source factory for concurrent sessions. With a
// non-zero seed the n-th call is seeded with seed+n, so a server replay with the
// same request order reproduces every session.
func SessionSources(seed int64) func() dice.Source {
	if seed == 0 {
		return dice.NewCryptoSource
	}
	var n atomic.Int64
	return func() dice.Source {
		return dice.NewSeededSource(seed + n.Add(1) - 1)
	}
}
