package gpu

// SMIStatus classifies the outcome of the nvidia-smi hardware probe
type SMIStatus string

const (
	// SMIStatusOK means the command ran and exited with status zero.
	SMIStatusOK SMIStatus = "ok"
	// SMIStatusUnavailable means the command ran but exited non-zero.
	SMIStatusUnavailable SMIStatus = "unavailable"
	// SMIStatusNotFound means the binary could not be started.
	SMIStatusNotFound SMIStatus = "not_found"
	// SMIStatusTimedOut means the command did not finish before the deadline.
	SMIStatusTimedOut SMIStatus = "timed_out"
)

// SMIResult is the snapshot produced by the hardware probe
type SMIResult struct {
	Command      string    `json:"command"`
	Status       SMIStatus `json:"status"`
	ExitCode     int       `json:"exit_code"`
	Lines        []string  `json:"lines,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Missing reports whether the utility is absent for practical purposes.
// A timeout is treated the same as a missing binary.
func (r SMIResult) Missing() bool {
	return r.Status == SMIStatusNotFound || r.Status == SMIStatusTimedOut
}

// GPUInfo represents information about a single GPU as seen by NVML
type GPUInfo struct {
	Name     string `json:"name"`
	UUID     string `json:"uuid"`
	MemoryMB uint64 `json:"memory_mb"`
	Index    int    `json:"index"`
}

// GPUReport represents the NVML driver probe result. Enabled is false when
// the binary was built without NVML support or the probe was switched off.
type GPUReport struct {
	Enabled       bool      `json:"enabled"`
	DriverVersion string    `json:"driver_version,omitempty"`
	CUDAVersion   int       `json:"cuda_version,omitempty"`
	NVMLOk        bool      `json:"nvml_ok"`
	GPUs          []GPUInfo `json:"gpus"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}

// CUDAVersionString renders NVML's integer CUDA driver version (e.g. 12020)
// as "12.2".
func (r GPUReport) CUDAVersionString() string {
	if r.CUDAVersion <= 0 {
		return ""
	}
	return formatCUDAVersion(r.CUDAVersion)
}
