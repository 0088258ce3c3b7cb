package hardware

import (
	"os"
	"runtime"
	"strings"
)

const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"

	ComputeAuto    = "auto"
	ComputeFloat16 = "float16"
	ComputeInt8    = "int8"
)

// DeviceSelection is the resolved execution target for the engine.
type DeviceSelection struct {
	Device      string
	ComputeType string
}

// DetectDevice resolves "auto" device and compute type values. Explicit
// values pass through unchanged.
func DetectDevice(requestedDevice, requestedCompute string) DeviceSelection {
	_, cudaVisible := os.LookupEnv("CUDA_VISIBLE_DEVICES")
	return detectDevice(requestedDevice, requestedCompute, cudaVisible)
}

func detectDevice(requestedDevice, requestedCompute string, cudaVisible bool) DeviceSelection {
	device := strings.ToLower(strings.TrimSpace(requestedDevice))
	if device == "" || device == DeviceAuto {
		device = DeviceCPU
		if cudaVisible {
			device = DeviceCUDA
		}
	}

	compute := strings.ToLower(strings.TrimSpace(requestedCompute))
	if compute == "" || compute == ComputeAuto {
		// int8 is the faster CPU choice, Apple Silicon included.
		compute = ComputeInt8
		if device == DeviceCUDA {
			compute = ComputeFloat16
		}
	}
	return DeviceSelection{Device: device, ComputeType: compute}
}

// IsAppleSilicon reports whether the process runs on an arm64 Mac.
func IsAppleSilicon() bool {
	return runtime.GOOS == "darwin" && runtime.GOARCH == "arm64"
}
