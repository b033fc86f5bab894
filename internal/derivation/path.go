package derivation

import (
	"fmt"
	"strconv"
	"strings"
)

const hardenedOffset = uint32(0x80000000)

// parsePath parses a BIP32 path like "m/44'/60'/0'/0/0" into indices, adding
// hardenedOffset to any component marked with a trailing ' or h.
func parsePath(path string) ([]uint32, error) {
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, fmt.Errorf("derivation: path %q must start with \"m\"", path)
	}
	out := make([]uint32, 0, len(parts)-1)
	for _, p := range parts[1:] {
		hardened := strings.HasSuffix(p, "'") || strings.HasSuffix(p, "h") || strings.HasSuffix(p, "H")
		if hardened {
			p = p[:len(p)-1]
		}
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("derivation: invalid path component %q: %w", p, err)
		}
		idx := uint32(n)
		if hardened {
			idx += hardenedOffset
		}
		out = append(out, idx)
	}
	return out, nil
}
