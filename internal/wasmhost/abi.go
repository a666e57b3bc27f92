package wasmhost

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
)

// pack combines a guest memory offset and byte length into the single
// uint64 every cognia_* host function returns, matching the pair every
// cognia_* host function accepts as its two uint32 arguments.
func pack(ptr, size uint32) uint64 {
	return uint64(ptr)<<32 | uint64(size)
}

func unpack(v uint64) (ptr, size uint32) {
	return uint32(v >> 32), uint32(v)
}

// readGuestString reads a UTF-8 string the guest wrote at (ptr, size)
// in its own linear memory.
func readGuestString(mod api.Module, ptr, size uint32) (string, error) {
	buf, ok := mod.Memory().Read(ptr, size)
	if !ok {
		return "", fmt.Errorf("reading %d bytes at guest offset %d: out of range", size, ptr)
	}
	return string(buf), nil
}

// writeGuestString copies s into guest memory, asking the guest to
// allocate the space first via its exported cognia_alloc(size) -> ptr
// function — the convention every CogniaLauncher plugin's SDK wraps.
func writeGuestString(ctx context.Context, mod api.Module, s string) (ptr, size uint32, err error) {
	alloc := mod.ExportedFunction("cognia_alloc")
	if alloc == nil {
		return 0, 0, fmt.Errorf("plugin does not export cognia_alloc")
	}
	size = uint32(len(s))
	results, err := alloc.Call(ctx, uint64(size))
	if err != nil {
		return 0, 0, fmt.Errorf("calling guest cognia_alloc: %w", err)
	}
	ptr = uint32(results[0])
	if size > 0 && !mod.Memory().Write(ptr, []byte(s)) {
		return 0, 0, fmt.Errorf("writing %d bytes to guest offset %d: out of range", size, ptr)
	}
	return ptr, size, nil
}

// hostFunc is the signature every cognia_* import shares: read the
// caller-supplied JSON argument string, return a JSON result string
// (an error result is itself valid JSON: {"error": "..."}).
type hostFunc func(ctx context.Context, pluginID, argJSON string) (string, error)

// errorJSON renders err as the {"error": "<Kind>", "message": "<message>"}
// envelope plugins receive on a denied or failed call.
func errorJSON(err error) string {
	kind := string(cogniaerr.KindOf(err))
	return fmt.Sprintf(`{"error":%q,"message":%q}`, kind, err.Error())
}
