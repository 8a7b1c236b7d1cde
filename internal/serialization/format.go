// Package serialization implements the .peft adapter checkpoint format.
//
// A .peft file is a JSON header followed by aligned raw tensor data:
//
//	[4 bytes]  magic "PEFT"
//	[4 bytes]  format version (uint32, little endian)
//	[8 bytes]  header length in bytes (uint64, little endian)
//	[N bytes]  JSON header
//	[padding]  zero bytes up to the 64-byte data alignment
//	[...]      tensor data, each tensor aligned to 64 bytes
//
// Offsets in the header are relative to the start of the data section.
package serialization

import "time"

// Format constants.
const (
	MagicBytes      = "PEFT"
	FormatVersion   = 1
	DataAlignment   = 64      // tensor data aligned for mmap-friendly access
	MaxHeaderSize   = 1 << 26 // 64 MiB, sanity bound when reading
	MaxTensorCount  = 1 << 20
	MaxTensorName   = 512
	fixedHeaderSize = 16 // magic + version + header length
)

// Data type string constants used in headers.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
)

// Header is the JSON header of a .peft file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	Library       string            `json:"library"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name        string `json:"name"`
	DType       string `json:"dtype"`
	Shape       []int  `json:"shape"`
	OffsetStart uint64 `json:"offset_start"` // relative to data section
	OffsetEnd   uint64 `json:"offset_end"`
}

// libraryVersion identifies the writer in saved headers.
const libraryVersion = "peft-go/0.1"

// align rounds n up to the next multiple of DataAlignment.
func align(n uint64) uint64 {
	return (n + DataAlignment - 1) &^ (DataAlignment - 1)
}
