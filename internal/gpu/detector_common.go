package gpu

import "fmt"

func formatCUDAVersion(v int) string {
	return fmt.Sprintf("%d.%d", v/1000, (v%1000)/10)
}

func disabledReport(reason string) GPUReport {
	return GPUReport{
		Enabled:      false,
		GPUs:         []GPUInfo{},
		ErrorMessage: reason,
	}
}
