// Package cpu implements the pure-Go CPU backend for tensor operations.
package cpu

import (
	"github.com/peft-ml/peft/internal/tensor"
)

// CPUBackend is the reference backend. All operations run synchronously
// on the calling goroutine.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{device: tensor.CPU}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the device type.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Compile-time check that CPUBackend implements tensor.Backend.
var _ tensor.Backend = (*CPUBackend)(nil)
