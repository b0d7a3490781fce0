// Package cpuinfo reports whether the host exposes hardware AES round
// instructions (AES-NI on x86, the ARMv8 Cryptography Extensions on
// arm64). This is informational only: the AES round primitive in this
// repository is portable Go, not assembly, so nothing here changes which
// code path Eval takes. It exists because the construction's branch tail
// is explicitly designed to be vectorized across such instructions, and
// a reference front-end reporting whether that vectorization would have
// hardware to land on is a reasonable diagnostic to carry.
package cpuinfo

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Capabilities describes the AES-acceleration features golang.org/x/sys/cpu
// detected on the current host.
type Capabilities struct {
	HasAESNI     bool // x86 AES-NI
	HasARMCrypto bool // ARMv8 Cryptography Extensions (AES)
	Architecture string
}

// Detect reads the process-wide CPU feature flags populated by
// golang.org/x/sys/cpu at program init.
func Detect() Capabilities {
	return Capabilities{
		HasAESNI:     cpu.X86.HasAES,
		HasARMCrypto: cpu.ARM64.HasAES,
		Architecture: runtime.GOARCH,
	}
}

// Accelerated reports whether any known hardware AES path is available.
func (c Capabilities) Accelerated() bool {
	return c.HasAESNI || c.HasARMCrypto
}
