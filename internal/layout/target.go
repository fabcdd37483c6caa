package layout

import "fmt"

// Target describes the ABI target triple and its pointer/scalar properties.
type Target struct {
	Triple         string // e.g. "x86_64-linux-gnu"
	PtrSize        int    // bytes
	PtrAlign       int    // bytes
	MaxScalarAlign int    // alignment cap for wide integers (i128, i256)
}

func X86_64LinuxGNU() Target {
	return Target{
		Triple:         "x86_64-linux-gnu",
		PtrSize:        8,
		PtrAlign:       8,
		MaxScalarAlign: 16,
	}
}

func AArch64LinuxGNU() Target {
	return Target{
		Triple:         "aarch64-linux-gnu",
		PtrSize:        8,
		PtrAlign:       8,
		MaxScalarAlign: 16,
	}
}

// TargetByTriple resolves one of the supported targets.
func TargetByTriple(triple string) (Target, error) {
	switch triple {
	case "", "x86_64-linux-gnu", "x86_64-unknown-linux-gnu":
		return X86_64LinuxGNU(), nil
	case "aarch64-linux-gnu", "aarch64-unknown-linux-gnu":
		return AArch64LinuxGNU(), nil
	default:
		return Target{}, fmt.Errorf("unsupported target triple %q (expected x86_64-linux-gnu|aarch64-linux-gnu)", triple)
	}
}
