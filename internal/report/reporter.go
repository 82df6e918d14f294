// Package report runs the diagnostic probes in order and renders them as
// plain text.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"gpucheck/internal/gpu"
	"gpucheck/internal/logging"
	"gpucheck/internal/torch"
)

// LibraryPathEnv is the dynamic-library search path shown when CUDA is
// unavailable.
const LibraryPathEnv = "LD_LIBRARY_PATH"

const notSet = "Not set"

// HardwareProbe runs the accelerator status utility
type HardwareProbe interface {
	Run(ctx context.Context) gpu.SMIResult
}

// DriverProbe queries the driver library directly
type DriverProbe interface {
	DetectGPUs() gpu.GPUReport
}

// Reporter writes the diagnostic report to out.
type Reporter struct {
	out       io.Writer
	st        styles
	smi       HardwareProbe
	driver    DriverProbe
	loader    torch.Loader
	lookupEnv func(string) (string, bool)
	now       func() time.Time
	logger    *logging.Logger
}

// Option customises a Reporter
type Option func(*Reporter)

// WithLookupEnv replaces os.LookupEnv (for testing)
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(r *Reporter) { r.lookupEnv = lookup }
}

// WithDriverProbe adds the NVML driver section
func WithDriverProbe(driver DriverProbe) Option {
	return func(r *Reporter) { r.driver = driver }
}

// NewReporter creates a reporter writing to out
func NewReporter(out io.Writer, smi HardwareProbe, loader torch.Loader, logger *logging.Logger, opts ...Option) *Reporter {
	r := &Reporter{
		out:       out,
		st:        newStyles(out),
		smi:       smi,
		loader:    loader,
		lookupEnv: os.LookupEnv,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes hardware, driver and library probes in that order. Only the
// library probe decides the outcome.
func (r *Reporter) Run(ctx context.Context) Snapshot {
	snap := Snapshot{
		GeneratedAt: r.now().UTC().Format(time.RFC3339),
	}

	snap.SMI = r.smi.Run(ctx)
	r.printHardware(snap.SMI)

	if r.driver != nil {
		if report := r.driver.DetectGPUs(); report.Enabled {
			snap.Driver = &report
			r.printDriver(report)
		}
	}

	snap.Outcome = r.runLibrary(ctx, &snap)
	snap.ExitCode = snap.Outcome.ExitCode()

	r.logger.Info("report.done", "Diagnostic finished", map[string]interface{}{
		"outcome":   string(snap.Outcome),
		"exit_code": snap.ExitCode,
	})

	return snap
}

func (r *Reporter) printHardware(res gpu.SMIResult) {
	switch {
	case res.Status == gpu.SMIStatusOK:
		r.println(fmt.Sprintf("NVIDIA GPU detected via %s:", res.Command))
		for _, line := range res.Lines {
			r.println(line)
		}
	case res.Missing():
		r.println(r.st.muted.Render(fmt.Sprintf("%s not found (expected if using NVIDIA Container Runtime)", res.Command)))
	default:
		r.println(r.st.muted.Render(fmt.Sprintf("%s not available (this is OK if using NVIDIA Container Runtime)", res.Command)))
	}
}

func (r *Reporter) printDriver(report gpu.GPUReport) {
	if !report.NVMLOk {
		r.println(r.st.muted.Render("NVML driver probe failed: " + report.ErrorMessage))
		return
	}

	r.println(fmt.Sprintf("NVML driver version: %s (CUDA driver %s)", report.DriverVersion, report.CUDAVersionString()))
	for _, g := range report.GPUs {
		r.println(fmt.Sprintf("  NVML GPU %d: %s %s, %s", g.Index, g.Name, g.UUID, humanize.IBytes(g.MemoryMB*1024*1024)))
	}
	if report.ErrorMessage != "" {
		r.println(r.st.muted.Render("  " + report.ErrorMessage))
	}
}

func (r *Reporter) runLibrary(ctx context.Context, snap *Snapshot) Outcome {
	lib, err := r.loader.Load(ctx)
	if err != nil {
		snap.ErrorMessage = err.Error()
		if errors.Is(err, torch.ErrNotInstalled) {
			r.println(r.st.err.Render("ERROR: PyTorch not installed!"))
		} else {
			r.println(r.st.err.Render("ERROR: PyTorch could not be probed!"))
		}
		r.println("  " + err.Error())
		return OutcomeFatal
	}

	variant, tag := torch.ParseBuild(lib.Version())
	summary := &TorchSummary{
		Version:       lib.Version(),
		Location:      lib.Location(),
		Variant:       string(variant),
		BuildTag:      tag,
		CUDAAvailable: lib.CUDAAvailable(),
		CUDAError:     lib.CUDAError(),
	}
	snap.Torch = summary

	r.println(banner)
	r.println(r.st.title.Render("PyTorch CUDA Detection Report"))
	r.println(banner)
	r.println("PyTorch version: " + summary.Version)
	r.println("PyTorch location: " + summary.Location)

	switch variant {
	case torch.VariantCPU:
		r.println(r.st.warn.Render("WARNING: PyTorch CPU version detected!"))
	case torch.VariantCUDA:
		r.println("PyTorch CUDA build detected: " + tag)
	}

	r.println("CUDA available: " + pythonBool(summary.CUDAAvailable))

	if !summary.CUDAAvailable {
		if summary.CUDAError != "" {
			r.println(r.st.muted.Render("CUDA error: " + summary.CUDAError))
		}
		r.printUnavailable(snap)
		return OutcomeAdvisory
	}

	summary.CUDAVersion = lib.CUDAVersion()
	r.println("CUDA version: " + summary.CUDAVersion)

	cudnn, err := lib.CuDNNVersion()
	if err != nil {
		r.logger.Debug("torch.cudnn.unavailable", "cuDNN version query failed", map[string]interface{}{
			"error": err.Error(),
		})
		cudnn = "N/A"
	} else {
		summary.CuDNNVersion = cudnn
	}
	r.println("cuDNN version: " + cudnn)

	count := lib.DeviceCount()
	r.println(fmt.Sprintf("Number of GPUs: %d", count))
	for i := 0; i < count; i++ {
		summary.Devices = append(summary.Devices, r.printDevice(lib, i))
	}

	r.println(banner)
	r.println(r.st.success.Render("SUCCESS: GPU is available and PyTorch can use it!"))
	return OutcomeOK
}

func (r *Reporter) printDevice(lib torch.Library, index int) DeviceSummary {
	dev := DeviceSummary{Index: index, Name: lib.DeviceName(index)}
	r.println(fmt.Sprintf("  GPU %d: %s", index, dev.Name))

	props, err := lib.DeviceProperties(index)
	if err != nil {
		dev.ErrorMessage = err.Error()
		r.logger.Warn("torch.device.properties.failed", "Failed to read device properties", map[string]interface{}{
			"index": index,
			"error": err.Error(),
		})
		r.println("    Memory: N/A")
		r.println("    Compute Capability: N/A")
		return dev
	}

	dev.TotalMemoryBytes = props.TotalMemory
	dev.TotalMemoryGiB = props.TotalMemoryGiB()
	dev.ComputeCapability = props.ComputeCapability()
	r.println(fmt.Sprintf("    Memory: %.2f GB", dev.TotalMemoryGiB))
	r.println("    Compute Capability: " + dev.ComputeCapability)
	return dev
}

func (r *Reporter) printUnavailable(snap *Snapshot) {
	r.println(banner)
	r.println(r.st.warn.Render("WARNING: CUDA is not available in PyTorch!"))
	r.println("Possible reasons:")
	r.println("  1. PyTorch CPU version is installed")
	r.println("  2. CUDA libraries not found (check " + LibraryPathEnv + ")")
	r.println("  3. GPU drivers not accessible from container")
	r.println(banner)

	value, ok := r.lookupEnv(LibraryPathEnv)
	if ok {
		snap.LibraryPath = &value
	} else {
		value = notSet
	}
	r.println(LibraryPathEnv + ": " + value)
	r.println(banner)
}

// pythonBool renders b the way the workload's interpreter would print it.
func pythonBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// println ignores write errors; there is nowhere better to report them.
func (r *Reporter) println(line string) {
	_, _ = fmt.Fprintln(r.out, line)
}
