//go:build cuda

package gpu

import (
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"gpucheck/internal/logging"
)

// Detector queries the driver through NVML. It answers even when the
// container runtime injects libnvidia-ml without the nvidia-smi binary.
type Detector struct {
	nvml    NVMLInterface
	logger  *logging.Logger
	enabled bool
}

// NewDetector creates a new NVML driver detector
func NewDetector(logger *logging.Logger, enabled bool) *Detector {
	return &Detector{
		nvml:    NewRealNVML(),
		logger:  logger,
		enabled: enabled,
	}
}

// NewDetectorWithNVML creates a detector with a custom NVML interface (for testing)
func NewDetectorWithNVML(nvmlInterface NVMLInterface, logger *logging.Logger) *Detector {
	return &Detector{
		nvml:    nvmlInterface,
		logger:  logger,
		enabled: true,
	}
}

// DetectGPUs performs NVML detection and returns a report. Failures are
// recorded in the report and never returned as errors.
func (d *Detector) DetectGPUs() GPUReport {
	if !d.enabled {
		d.logger.Info("gpu.nvml.disabled", "NVML probe disabled by configuration", nil)
		return disabledReport("NVML probe disabled by configuration")
	}

	d.logger.Debug("gpu.nvml.start", "Starting NVML driver probe", nil)

	report := GPUReport{
		Enabled: true,
		GPUs:    make([]GPUInfo, 0),
	}

	ret := d.nvml.Init()
	if ret != nvml.SUCCESS {
		report.ErrorMessage = fmt.Sprintf("Failed to initialize NVML: %v", nvml.ErrorString(ret))
		d.logger.Warn("gpu.nvml.init.failed", "NVML initialization failed", map[string]interface{}{
			"error": report.ErrorMessage,
		})
		return report
	}
	defer d.nvml.Shutdown()

	report.NVMLOk = true

	if driverVersion, ret := d.nvml.SystemGetDriverVersion(); ret == nvml.SUCCESS {
		report.DriverVersion = driverVersion
	} else {
		d.logger.Warn("gpu.nvml.driver_version.failed", "Failed to get driver version", map[string]interface{}{
			"error": nvml.ErrorString(ret),
		})
	}

	if cudaVersion, ret := d.nvml.SystemGetCudaDriverVersion(); ret == nvml.SUCCESS {
		report.CUDAVersion = cudaVersion
	} else {
		d.logger.Warn("gpu.nvml.cuda_version.failed", "Failed to get CUDA driver version", map[string]interface{}{
			"error": nvml.ErrorString(ret),
		})
	}

	count, ret := d.nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		report.ErrorMessage = fmt.Sprintf("Failed to get device count: %v", nvml.ErrorString(ret))
		d.logger.Warn("gpu.nvml.count.failed", "Failed to get GPU count", map[string]interface{}{
			"error": report.ErrorMessage,
		})
		return report
	}

	for i := 0; i < count; i++ {
		device, ret := d.nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			d.logger.Warn("gpu.nvml.handle.failed", "Failed to get device handle", map[string]interface{}{
				"index": i,
				"error": nvml.ErrorString(ret),
			})
			continue
		}

		info := GPUInfo{Index: i}
		if name, ret := device.GetName(); ret == nvml.SUCCESS {
			info.Name = name
		}
		if uuid, ret := device.GetUUID(); ret == nvml.SUCCESS {
			info.UUID = uuid
		}
		if mem, ret := device.GetMemoryInfo(); ret == nvml.SUCCESS {
			info.MemoryMB = mem.Total / (1024 * 1024)
		}

		report.GPUs = append(report.GPUs, info)
	}

	d.logger.Info("gpu.nvml.done", "NVML driver probe finished", map[string]interface{}{
		"driver_version": report.DriverVersion,
		"count":          len(report.GPUs),
	})

	return report
}
