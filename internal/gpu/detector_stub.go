//go:build !cuda

package gpu

import "gpucheck/internal/logging"

// Detector is a no-op NVML detector for builds without the cuda tag.
type Detector struct {
	logger *logging.Logger
}

// NewDetector creates a detector that always reports NVML as disabled.
func NewDetector(logger *logging.Logger, _ bool) *Detector {
	return &Detector{logger: logger}
}

// DetectGPUs returns a disabled report.
func (d *Detector) DetectGPUs() GPUReport {
	d.logger.Debug("gpu.nvml.disabled", "Skipping NVML probe (built without cuda tag)", nil)
	return disabledReport("NVML disabled: rebuild with -tags cuda")
}
