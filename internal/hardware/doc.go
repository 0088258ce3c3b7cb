// Package hardware chooses the WhisperX model size and execution device for
// the current machine.
//
// Model selection in "auto" mode picks the largest model whose approximate
// memory footprint fits in 70% of the memory currently available. Device
// detection prefers CUDA when CUDA_VISIBLE_DEVICES is set and otherwise runs
// on the CPU with int8 quantization.
package hardware
