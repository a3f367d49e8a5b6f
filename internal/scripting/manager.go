package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/dice"
)

// globalSet is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no named VM is found.
const globalSet = "__global__"

// vm is one loaded LState. An LState is single-threaded, so every call holds mu.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	closed bool
}

// close releases the LState once every in-flight call has returned.
func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.closed = true
		v.L.Close()
	}
}

// Manager owns one sandboxed LState per script set and exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same set are serialized;
// different sets run concurrently.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no script sets.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// Load creates a sandboxed VM for set, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
// Loading an existing set replaces and closes its previous VM.
//
// Precondition: set must be non-empty; scriptDir must be a readable directory.
// Postcondition: the VM is registered; returns error on Lua load failure.
func (m *Manager) Load(set, scriptDir string, instLimit int) error {
	return m.loadInto(set, scriptDir, instLimit)
}

// LoadGlobal creates the "__global__" VM used as the CallHook fallback for any set.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalSet, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)
	for _, path := range luaFiles {
		err := withBudget(L, instLimit, func() error { return L.DoFile(path) })
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	old := m.vms[key]
	m.vms[key] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()

	if old != nil {
		old.close()
	}
	m.logger.Debug("scripting: loaded",
		zap.String("set", key),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

func (m *Manager) lookup(set string) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.vms[set]; ok {
		return v
	}
	return m.vms[globalSet]
}

// HasHook reports whether set (or the global fallback) defines a global function named hook.
func (m *Manager) HasHook(set, hook string) bool {
	v := m.lookup(set)
	if v == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.closed && v.L.GetGlobal(hook).Type() == lua.LTFunction
}

// CallHook calls the named Lua global function in set's VM. If the set has
// no VM, the __global__ VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(set, hook string, args ...lua.LValue) (lua.LValue, error) {
	v := m.lookup(set)
	if v == nil {
		m.logger.Info("scripting: no VM for set",
			zap.String("set", set),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return m.call(v, set, hook, func(*lua.LState) []lua.LValue { return args })
}

// Call is CallHook for plain Go values: args are converted with ToLua inside
// the VM and the hook's first return value is converted back with FromLua.
//
// Postcondition: Returns nil when the hook is missing, fails, or returns nil.
func (m *Manager) Call(set, hook string, args ...any) (any, error) {
	v := m.lookup(set)
	if v == nil {
		m.logger.Info("scripting: no VM for set",
			zap.String("set", set),
			zap.String("hook", hook),
		)
		return nil, nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	ret, err := m.call(v, set, hook, func(L *lua.LState) []lua.LValue {
		out := make([]lua.LValue, len(args))
		for i, a := range args {
			out[i] = ToLua(L, a)
		}
		return out
	})
	if err != nil {
		return nil, err
	}
	return FromLua(ret), nil
}

// call runs hook on v. The caller holds v.mu.
func (m *Manager) call(v *vm, set, hook string, build func(*lua.LState) []lua.LValue) (lua.LValue, error) {
	if v.closed {
		return lua.LNil, nil
	}
	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	err := withBudget(v.L, v.limit, func() error {
		return v.L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, build(v.L)...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("set", set),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Close closes every VM. Subsequent calls behave as if nothing was loaded.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()

	for _, v := range vms {
		v.close()
	}
}
