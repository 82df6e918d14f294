//go:build cuda

package gpu

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// MockNVML is a mock implementation of NVMLInterface for testing
type MockNVML struct {
	InitReturn          nvml.Return
	DeviceCountReturn   nvml.Return
	DriverVersion       string
	DriverVersionReturn nvml.Return
	CudaVersion         int
	CudaVersionReturn   nvml.Return
	Devices             []MockDevice
	ShutdownCalls       int
}

// MockDevice represents a mock GPU device
type MockDevice struct {
	Name             string
	UUID             string
	MemoryTotal      uint64
	MemoryInfoReturn nvml.Return
	HandleReturn     nvml.Return
}

func NewMockNVML() *MockNVML {
	return &MockNVML{
		InitReturn:          nvml.SUCCESS,
		DeviceCountReturn:   nvml.SUCCESS,
		DriverVersionReturn: nvml.SUCCESS,
		CudaVersionReturn:   nvml.SUCCESS,
	}
}

func (m *MockNVML) Init() nvml.Return {
	return m.InitReturn
}

func (m *MockNVML) Shutdown() nvml.Return {
	m.ShutdownCalls++
	return nvml.SUCCESS
}

func (m *MockNVML) DeviceGetCount() (int, nvml.Return) {
	return len(m.Devices), m.DeviceCountReturn
}

func (m *MockNVML) DeviceGetHandleByIndex(index int) (DeviceInterface, nvml.Return) {
	if index < 0 || index >= len(m.Devices) {
		return nil, nvml.ERROR_INVALID_ARGUMENT
	}
	if m.Devices[index].HandleReturn != nvml.SUCCESS {
		return nil, m.Devices[index].HandleReturn
	}
	return mockDeviceImpl{device: &m.Devices[index]}, nvml.SUCCESS
}

func (m *MockNVML) SystemGetDriverVersion() (string, nvml.Return) {
	return m.DriverVersion, m.DriverVersionReturn
}

func (m *MockNVML) SystemGetCudaDriverVersion() (int, nvml.Return) {
	return m.CudaVersion, m.CudaVersionReturn
}

type mockDeviceImpl struct {
	device *MockDevice
}

func (m mockDeviceImpl) GetName() (string, nvml.Return) {
	return m.device.Name, nvml.SUCCESS
}

func (m mockDeviceImpl) GetUUID() (string, nvml.Return) {
	return m.device.UUID, nvml.SUCCESS
}

func (m mockDeviceImpl) GetMemoryInfo() (nvml.Memory, nvml.Return) {
	return nvml.Memory{Total: m.device.MemoryTotal}, m.device.MemoryInfoReturn
}
