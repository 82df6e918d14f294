package report

import (
	"encoding/json"
	"fmt"

	"gpucheck/internal/fsutil"
	"gpucheck/internal/gpu"
	"gpucheck/internal/logging"
)

// Snapshot is the machine-readable record of one run, written by --save.
type Snapshot struct {
	GeneratedAt  string         `json:"generated_at"`
	Outcome      Outcome        `json:"outcome"`
	ExitCode     int            `json:"exit_code"`
	SMI          gpu.SMIResult  `json:"smi"`
	Driver       *gpu.GPUReport `json:"driver,omitempty"`
	Torch        *TorchSummary  `json:"torch,omitempty"`
	LibraryPath  *string        `json:"ld_library_path,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// TorchSummary is the rendered view of a torch.Library
type TorchSummary struct {
	Version       string          `json:"version"`
	Location      string          `json:"location"`
	Variant       string          `json:"variant"`
	BuildTag      string          `json:"build_tag,omitempty"`
	CUDAAvailable bool            `json:"cuda_available"`
	CUDAError     string          `json:"cuda_error,omitempty"`
	CUDAVersion   string          `json:"cuda_version,omitempty"`
	CuDNNVersion  string          `json:"cudnn_version,omitempty"`
	Devices       []DeviceSummary `json:"devices,omitempty"`
}

// DeviceSummary describes one CUDA device as PyTorch sees it
type DeviceSummary struct {
	Index             int     `json:"index"`
	Name              string  `json:"name"`
	TotalMemoryBytes  uint64  `json:"total_memory_bytes,omitempty"`
	TotalMemoryGiB    float64 `json:"total_memory_gib,omitempty"`
	ComputeCapability string  `json:"compute_capability,omitempty"`
	ErrorMessage      string  `json:"error_message,omitempty"`
}

// SaveSnapshot writes the snapshot as indented JSON, atomically.
func SaveSnapshot(snap Snapshot, path string, logger *logging.Logger) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := fsutil.AtomicWriteFile(path, data, fsutil.DefaultFilePermissions, logger); err != nil {
		return err
	}

	logger.Info("report.snapshot.saved", "Diagnostic snapshot saved", map[string]interface{}{
		"filepath": path,
	})
	return nil
}
