package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the scene tuning hooks.
// Single-goroutine access only (frame loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	// Core helpers first, then the hook directories.
	for _, sub := range []string{"core", "wind", "pinball"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasHook reports whether a global Lua function is defined.
func (e *Engine) HasHook(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// call invokes a global function with one return value. ok is false when the
// hook is missing or fails.
func (e *Engine) call(name string, args ...lua.LValue) (lua.LValue, bool) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return lua.LNil, false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua hook error", zap.String("hook", name), zap.Error(err))
		return lua.LNil, false
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return result, true
}

// WindDirection calls wind_direction(seconds), which returns {x=, y=, z=}.
func (e *Engine) WindDirection(elapsed time.Duration) (mgl32.Vec3, bool) {
	result, ok := e.call("wind_direction", lua.LNumber(elapsed.Seconds()))
	if !ok {
		return mgl32.Vec3{}, false
	}
	t, isTable := result.(*lua.LTable)
	if !isTable {
		e.log.Error("lua wind_direction returned non-table")
		return mgl32.Vec3{}, false
	}
	return mgl32.Vec3{
		float32(lua.LVAsNumber(t.RawGetString("x"))),
		float32(lua.LVAsNumber(t.RawGetString("y"))),
		float32(lua.LVAsNumber(t.RawGetString("z"))),
	}, true
}

// BumperScore calls bumper_score(name). A nil result defers to the
// configured points.
func (e *Engine) BumperScore(name string) (int, bool) {
	result, ok := e.call("bumper_score", lua.LString(name))
	if !ok || result == lua.LNil {
		return 0, false
	}
	n, isNum := result.(lua.LNumber)
	if !isNum {
		e.log.Error("lua bumper_score returned non-number", zap.String("bumper", name))
		return 0, false
	}
	return int(n), true
}

func (e *Engine) Close() {
	e.vm.Close()
}
