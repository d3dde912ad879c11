package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// GlobalScope is the VM consulted when a scope has no VM of its own.
const GlobalScope = "__global__"

// CombatantInfo is the view of a combatant exposed to Lua as a table.
type CombatantInfo struct {
	UID    string
	Name   string
	Side   string
	HP     int
	MaxHP  int
	AC     int
	Active bool
}

// View is the read-only encounter state a hook call may inspect. A nil View
// makes every encounter.* query return nothing.
type View interface {
	Combatant(uid string) *CombatantInfo
	Enemies(uid string) []*CombatantInfo
	Allies(uid string) []*CombatantInfo
	// Roll evaluates a dice expression against the encounter's source.
	Roll(expr string) (int, error)
}

// vm is one sandboxed LState. An LState is single-threaded; mu serializes calls.
type vm struct {
	mu        sync.Mutex
	L         *lua.LState
	cancel    context.CancelFunc
	instLimit int
	view      View
}

// Manager owns one sandboxed VM per scope. Scopes are AI domain IDs plus
// GlobalScope for shared helpers.
//
// Manager is safe for concurrent use. Calls into the same scope are serialized.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	logger *zap.Logger
}

// NewManager creates a Manager. A nil logger is replaced by a no-op logger.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		vms:    make(map[string]*vm),
		logger: logger,
	}
}

// LoadScope creates a VM for scope, registers the encounter module and executes
// every *.lua file in scriptDir in lexicographic order. An existing VM for the
// same scope is replaced.
//
// Precondition: scope is non-empty; scriptDir is a readable directory.
func (m *Manager) LoadScope(scope, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, scope, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(files)

	v := m.newVM(instLimit)
	for _, path := range files {
		if err := v.L.DoFile(path); err != nil {
			v.close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, scope, err)
		}
	}
	m.install(scope, v)
	return nil
}

// LoadGlobal loads scriptDir into the GlobalScope VM.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.LoadScope(GlobalScope, scriptDir, instLimit)
}

// LoadString creates a VM for scope from inline source. Intended for tests and
// tactics embedded in configuration.
func (m *Manager) LoadString(scope, src string, instLimit int) error {
	v := m.newVM(instLimit)
	if err := v.L.DoString(src); err != nil {
		v.close()
		return fmt.Errorf("scripting: loading inline source for %q: %w", scope, err)
	}
	m.install(scope, v)
	return nil
}

// HasScope reports whether scope has its own VM.
func (m *Manager) HasScope(scope string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vms[scope]
	return ok
}

// CallHook calls the global Lua function hook in scope's VM, falling back to the
// GlobalScope VM. view backs the encounter.* queries for the duration of the call.
//
// Postcondition: returns (LNil, nil) when no VM exists or hook is undefined. Lua
// runtime errors, including an exhausted opcode budget, are logged at Warn and
// reported as LNil.
func (m *Manager) CallHook(scope, hook string, view View, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.vms[scope]
	if !ok {
		v = m.vms[GlobalScope]
	}
	m.mu.RUnlock()

	if v == nil {
		m.logger.Info("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	v.view = view
	cancel := limitInstructions(v.L, v.instLimit)
	defer func() {
		cancel()
		v.view = nil
	}()

	if err := v.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for scope, v := range m.vms {
		v.mu.Lock()
		v.close()
		v.mu.Unlock()
		delete(m.vms, scope)
	}
}

func (m *Manager) newVM(instLimit int) *vm {
	L, cancel := NewSandboxedState(instLimit)
	v := &vm{L: L, cancel: cancel, instLimit: instLimit}
	m.registerModules(v)
	return v
}

func (m *Manager) install(scope string, v *vm) {
	m.mu.Lock()
	old := m.vms[scope]
	m.vms[scope] = v
	m.mu.Unlock()
	if old != nil {
		old.mu.Lock()
		old.close()
		old.mu.Unlock()
	}
}

func (v *vm) close() {
	if v.cancel != nil {
		v.cancel()
	}
	v.L.Close()
}
