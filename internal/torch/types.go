// Package torch inspects the PyTorch installation visible to a Python
// interpreter and exposes it as a read-only Library snapshot.
package torch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotInstalled is returned by a Loader when PyTorch cannot be imported.
var ErrNotInstalled = errors.New("torch: not installed")

// ErrNoCuDNN is returned by CuDNNVersion when the version query fails.
var ErrNoCuDNN = errors.New("torch: cuDNN version unavailable")

// Variant is the build flavour encoded in the torch version string
type Variant string

const (
	// VariantCPU is a CPU-only wheel, e.g. "2.3.0+cpu".
	VariantCPU Variant = "cpu"
	// VariantCUDA is a CUDA wheel, e.g. "2.3.0+cu121".
	VariantCUDA Variant = "cuda"
	// VariantUnknown carries no local version marker.
	VariantUnknown Variant = "unknown"
)

const (
	cpuMarker  = "+cpu"
	cudaMarker = "+cu"
)

// ParseBuild classifies a torch version string. For CUDA builds the tag is
// everything after the first '+', e.g. "cu121".
func ParseBuild(version string) (Variant, string) {
	switch {
	case strings.Contains(version, cpuMarker):
		return VariantCPU, ""
	case strings.Contains(version, cudaMarker):
		_, tag, _ := strings.Cut(version, "+")
		return VariantCUDA, tag
	default:
		return VariantUnknown, ""
	}
}

// DeviceProperties mirrors the fields of torch.cuda.get_device_properties
// the report needs.
type DeviceProperties struct {
	TotalMemory uint64
	Major       int
	Minor       int
}

const bytesPerGiB = 1024 * 1024 * 1024

// TotalMemoryGiB converts TotalMemory from bytes to GiB.
func (p DeviceProperties) TotalMemoryGiB() float64 {
	return float64(p.TotalMemory) / bytesPerGiB
}

// ComputeCapability renders the capability as "major.minor".
func (p DeviceProperties) ComputeCapability() string {
	return fmt.Sprintf("%d.%d", p.Major, p.Minor)
}

// Library is a loaded PyTorch installation.
type Library interface {
	Version() string
	Location() string
	CUDAAvailable() bool
	// CUDAError is why the availability check itself raised, if it did.
	CUDAError() string
	CUDAVersion() string
	// CuDNNVersion is fallible; callers substitute a placeholder on error.
	CuDNNVersion() (string, error)
	DeviceCount() int
	DeviceName(index int) string
	DeviceProperties(index int) (DeviceProperties, error)
}
