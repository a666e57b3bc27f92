package wasmhost

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
)

// callTimeout bounds a single plugin function call, per spec.md §4.3.
const callTimeout = 30 * time.Second

// hostImportModule is the WASM import module name every CogniaLauncher
// plugin's cognia_* functions are declared under.
const hostImportModule = "env"

// Host compiles and runs CogniaLauncher plugins against a shared
// wazero runtime, dispatching their cognia_* imports into Dependencies.
type Host struct {
	runtime wazero.Runtime
	deps    Dependencies

	mu      sync.Mutex
	current string // plugin ID ambient cell, set for the duration of a call

	sharedHTTPClient *http.Client
}

// NewHost creates a Host backed by a fresh wazero runtime with the
// full cognia_* ABI registered as host module hostImportModule.
func NewHost(ctx context.Context, deps Dependencies) (*Host, error) {
	rt := wazero.NewRuntime(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, cogniaerr.Wrap(cogniaerr.KindInternal, "instantiating WASI", err)
	}

	h := &Host{runtime: rt, deps: deps}
	if err := h.registerABI(ctx); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return h, nil
}

// Close releases the wazero runtime and every module compiled under it.
func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}

// Instance is one loaded plugin module, ready to have its exported
// functions called.
type Instance struct {
	host     *Host
	module   api.Module
	pluginID string
}

// Load compiles and instantiates a plugin's WASM bytes under pluginID.
func (h *Host) Load(ctx context.Context, pluginID string, wasmBytes []byte) (*Instance, error) {
	config := wazero.NewModuleConfig().WithName(pluginID).WithStdout(nil).WithStderr(nil)
	mod, err := h.runtime.InstantiateWithConfig(ctx, wasmBytes, config)
	if err != nil {
		return nil, cogniaerr.Wrap(cogniaerr.KindPlugin, "instantiating plugin module", err)
	}
	return &Instance{host: h, module: mod, pluginID: pluginID}, nil
}

// Close releases this plugin instance's module.
func (i *Instance) Close(ctx context.Context) error {
	return i.module.Close(ctx)
}

// HasFunction reports whether the plugin exports function (used for
// optional lifecycle hooks like cognia_on_install).
func (i *Instance) HasFunction(function string) bool {
	return i.module.ExportedFunction(function) != nil
}

// Call invokes an exported plugin function with inputJSON, setting the
// ambient current-plugin-id for the duration of the call so host
// functions can perform permission checks against the right plugin,
// and enforcing callTimeout and panic recovery around the guest call.
func (i *Instance) Call(ctx context.Context, function, inputJSON string) (result string, err error) {
	fn := i.module.ExportedFunction(function)
	if fn == nil {
		return "", cogniaerr.Newf(cogniaerr.KindPlugin, "plugin %q does not export %q", i.pluginID, function)
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	i.host.mu.Lock()
	i.host.current = i.pluginID
	i.host.mu.Unlock()
	defer func() {
		i.host.mu.Lock()
		i.host.current = ""
		i.host.mu.Unlock()
	}()

	defer func() {
		if r := recover(); r != nil {
			err = cogniaerr.Newf(cogniaerr.KindPlugin, "plugin %q function %q panicked: %v", i.pluginID, function, r)
		}
	}()

	argPtr, argLen, err := writeGuestString(callCtx, i.module, inputJSON)
	if err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "passing argument to plugin", err)
	}

	results, err := fn.Call(callCtx, uint64(argPtr), uint64(argLen))
	if err != nil {
		if callCtx.Err() != nil {
			return "", cogniaerr.New(cogniaerr.KindTimeout, "plugin call timed out")
		}
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "calling plugin function", err)
	}
	if len(results) != 1 {
		return "", cogniaerr.Newf(cogniaerr.KindPlugin, "plugin function %q returned unexpected result shape", function)
	}

	retPtr, retLen := unpack(results[0])
	return readGuestString(i.module, retPtr, retLen)
}

// CallIfExists calls function if the plugin exports it, used for
// optional lifecycle hooks (cognia_on_install, cognia_on_enable, ...).
// A missing export is not an error; the function simply did not run.
func (i *Instance) CallIfExists(ctx context.Context, function, inputJSON string) (string, bool, error) {
	if !i.HasFunction(function) {
		return "", false, nil
	}
	result, err := i.Call(ctx, function, inputJSON)
	return result, true, err
}

func (h *Host) currentPluginID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}
