package torch

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpucheck/internal/gpu"
	"gpucheck/internal/logging"
)

func TestParseBuild(t *testing.T) {
	tests := []struct {
		version string
		variant Variant
		tag     string
	}{
		{"2.3.0+cpu", VariantCPU, ""},
		{"2.3.0+cu121", VariantCUDA, "cu121"},
		{"2.1.2+cu118", VariantCUDA, "cu118"},
		{"2.4.0", VariantUnknown, ""},
		{"2.4.0+rocm6.1", VariantUnknown, ""},
		{"", VariantUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			variant, tag := ParseBuild(tt.version)
			assert.Equal(t, tt.variant, variant)
			assert.Equal(t, tt.tag, tag)
		})
	}
}

func TestDeviceProperties(t *testing.T) {
	props := DeviceProperties{TotalMemory: 25757220864, Major: 8, Minor: 9}
	assert.InDelta(t, 23.99, props.TotalMemoryGiB(), 0.01)
	assert.Equal(t, "8.9", props.ComputeCapability())
}

func TestSnapshot_CuDNNVersion(t *testing.T) {
	ok := &Snapshot{CuDNN: "8902"}
	v, err := ok.CuDNNVersion()
	require.NoError(t, err)
	assert.Equal(t, "8902", v)

	failed := &Snapshot{CuDNNErr: "libcudnn.so.8: cannot open shared object file"}
	_, err = failed.CuDNNVersion()
	assert.ErrorIs(t, err, ErrNoCuDNN)

	_, err = (&Snapshot{}).CuDNNVersion()
	assert.ErrorIs(t, err, ErrNoCuDNN)
}

func TestSnapshot_Devices(t *testing.T) {
	snap := &Snapshot{Devices: []DeviceSnapshot{
		{Index: 0, Name: "NVIDIA A100-SXM4-80GB", TotalMemory: 85899345920, Major: 8, Minor: 0},
		{Index: 1, Name: "NVIDIA A100-SXM4-80GB", Error: "CUDA error: device-side assert"},
	}}

	assert.Equal(t, 2, snap.DeviceCount())
	assert.Equal(t, "NVIDIA A100-SXM4-80GB", snap.DeviceName(0))
	assert.Equal(t, "", snap.DeviceName(7))

	props, err := snap.DeviceProperties(0)
	require.NoError(t, err)
	assert.Equal(t, "8.0", props.ComputeCapability())

	_, err = snap.DeviceProperties(1)
	assert.Error(t, err)

	_, err = snap.DeviceProperties(2)
	assert.Error(t, err)
}

type fakeRunner struct {
	out   []byte
	err   error
	block bool
	args  []string
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.args = append([]string{name}, args...)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.out, f.err
}

func newTestLoader(r CommandRunner, timeout time.Duration) *PythonLoader {
	return NewPythonLoader(r, "python3", timeout, logging.NewLogger(logging.LevelError))
}

func TestPythonLoader_Installed(t *testing.T) {
	runner := &fakeRunner{out: []byte(`some banner from sitecustomize
{"installed": true, "version": "2.3.0+cu121", "location": "/usr/lib/python3/site-packages/torch/__init__.py", "cuda_available": true, "cuda_version": "12.1", "cudnn_version": "8902", "devices": [{"index": 0, "name": "NVIDIA L4", "total_memory": 23580639232, "major": 8, "minor": 9}]}
`)}

	lib, err := newTestLoader(runner, time.Second).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2.3.0+cu121", lib.Version())
	assert.Equal(t, "/usr/lib/python3/site-packages/torch/__init__.py", lib.Location())
	assert.True(t, lib.CUDAAvailable())
	assert.Equal(t, "12.1", lib.CUDAVersion())
	assert.Equal(t, 1, lib.DeviceCount())
	assert.Equal(t, "NVIDIA L4", lib.DeviceName(0))

	require.Len(t, runner.args, 3)
	assert.Equal(t, "python3", runner.args[0])
	assert.Equal(t, "-c", runner.args[1])
	assert.Contains(t, runner.args[2], "import torch")
}

func TestPythonLoader_CUDAErrorIsLoggedAndCarried(t *testing.T) {
	runner := &fakeRunner{out: []byte(`{"installed": true, "version": "2.3.0+cu121", "location": "/t/__init__.py", "cuda_available": false, "cuda_error": "CUDA driver version is insufficient for CUDA runtime version"}`)}
	var logs bytes.Buffer
	loader := NewPythonLoader(runner, "python3", time.Second, logging.NewWriterLogger(logging.LevelWarn, &logs))

	lib, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.False(t, lib.CUDAAvailable())
	assert.Equal(t, "CUDA driver version is insufficient for CUDA runtime version", lib.CUDAError())
	assert.Contains(t, logs.String(), `"type":"torch.cuda.error"`)
	assert.Contains(t, logs.String(), "CUDA driver version is insufficient")
}

func TestPythonLoader_NoCUDAErrorNoWarning(t *testing.T) {
	runner := &fakeRunner{out: []byte(`{"installed": true, "version": "2.3.0+cpu", "location": "/t/__init__.py", "cuda_available": false}`)}
	var logs bytes.Buffer
	loader := NewPythonLoader(runner, "python3", time.Second, logging.NewWriterLogger(logging.LevelWarn, &logs))

	lib, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lib.CUDAError())
	assert.NotContains(t, logs.String(), "torch.cuda.error")
}

func TestPythonLoader_NotInstalled(t *testing.T) {
	runner := &fakeRunner{out: []byte(`{"installed": false, "error": "No module named 'torch'"}`)}

	_, err := newTestLoader(runner, time.Second).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotInstalled)
	assert.Contains(t, err.Error(), "No module named 'torch'")
}

func TestPythonLoader_MissingInterpreter(t *testing.T) {
	runner := &fakeRunner{err: &exec.Error{Name: "python3", Err: exec.ErrNotFound}}

	_, err := newTestLoader(runner, time.Second).Load(context.Background())
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestPythonLoader_ScriptCrashed(t *testing.T) {
	runner := &fakeRunner{err: &exec.ExitError{Stderr: []byte("Segmentation fault")}}

	_, err := newTestLoader(runner, time.Second).Load(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotInstalled))
}

func TestPythonLoader_Timeout(t *testing.T) {
	runner := &fakeRunner{block: true}

	_, err := newTestLoader(runner, 20*time.Millisecond).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestPythonLoader_GarbageOutput(t *testing.T) {
	tests := map[string][]byte{
		"empty":    nil,
		"not json": []byte("Traceback (most recent call last):"),
	}
	for name, out := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newTestLoader(&fakeRunner{out: out}, time.Second).Load(context.Background())
			assert.Error(t, err)
		})
	}
}

// Exercises the embedded script against whatever interpreter the host has.
func TestPythonLoader_RealInterpreter(t *testing.T) {
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}

	loader := NewPythonLoader(gpu.ExecRunner{}, python, 2*time.Minute, logging.NewLogger(logging.LevelError))
	lib, err := loader.Load(context.Background())
	if err != nil {
		assert.ErrorIs(t, err, ErrNotInstalled)
		return
	}
	assert.NotEmpty(t, lib.Version())
}
