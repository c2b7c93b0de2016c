// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package affinity

import (
	"runtime"
	"testing"
)

func TestSetAffinity_CurrentCPU(t *testing.T) {
	err := SetAffinity(0)
	switch runtime.GOOS {
	case "linux", "windows":
		if err != nil {
			t.Fatalf("SetAffinity(0) on %s: %v", runtime.GOOS, err)
		}
	default:
		if err == nil {
			t.Fatal("expected an error on an unsupported platform")
		}
	}
}

func TestSetAffinity_NegativeCPUIsRejectedOrIgnored(t *testing.T) {
	// An invalid ID must not panic; SetAffinity may reject it with an
	// error. The result is discarded: this checks only the absence of a panic.
	_ = SetAffinity(-1)
}
