package torch

import (
	"errors"
	"fmt"
)

// Snapshot is the document emitted by the embedded probe script. It
// implements Library.
type Snapshot struct {
	Installed     bool             `json:"installed"`
	Error         string           `json:"error,omitempty"`
	VersionString string           `json:"version"`
	Path          string           `json:"location"`
	Available     bool             `json:"cuda_available"`
	CUDAErr       string           `json:"cuda_error,omitempty"`
	CUDARuntime   string           `json:"cuda_version,omitempty"`
	CuDNN         string           `json:"cudnn_version,omitempty"`
	CuDNNErr      string           `json:"cudnn_error,omitempty"`
	Devices       []DeviceSnapshot `json:"devices,omitempty"`
}

// DeviceSnapshot describes one visible CUDA device
type DeviceSnapshot struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	TotalMemory uint64 `json:"total_memory"`
	Major       int    `json:"major"`
	Minor       int    `json:"minor"`
	Error       string `json:"error,omitempty"`
}

var _ Library = (*Snapshot)(nil)

func (s *Snapshot) Version() string { return s.VersionString }
func (s *Snapshot) Location() string { return s.Path }
func (s *Snapshot) CUDAAvailable() bool { return s.Available }
func (s *Snapshot) CUDAError() string { return s.CUDAErr }
func (s *Snapshot) CUDAVersion() string { return s.CUDARuntime }
func (s *Snapshot) DeviceCount() int { return len(s.Devices) }

func (s *Snapshot) CuDNNVersion() (string, error) {
	if s.CuDNNErr != "" {
		return "", fmt.Errorf("%w: %s", ErrNoCuDNN, s.CuDNNErr)
	}
	if s.CuDNN == "" {
		return "", ErrNoCuDNN
	}
	return s.CuDNN, nil
}

func (s *Snapshot) DeviceName(index int) string {
	if index < 0 || index >= len(s.Devices) {
		return ""
	}
	return s.Devices[index].Name
}

func (s *Snapshot) DeviceProperties(index int) (DeviceProperties, error) {
	if index < 0 || index >= len(s.Devices) {
		return DeviceProperties{}, fmt.Errorf("device index %d out of range [0, %d)", index, len(s.Devices))
	}
	dev := s.Devices[index]
	if dev.Error != "" {
		return DeviceProperties{}, errors.New(dev.Error)
	}
	return DeviceProperties{
		TotalMemory: dev.TotalMemory,
		Major:       dev.Major,
		Minor:       dev.Minor,
	}, nil
}
