//go:build nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/oit"
)

func Detect() (oit.Tier, error) {
	return oit.TierLegacy, fmt.Errorf("gpu: built without gpu support")
}

func DetectWithProvider(_ gpucontext.DeviceProvider) (oit.Tier, error) {
	return oit.TierLegacy, fmt.Errorf("gpu: built without gpu support")
}
