package serialization

import (
	"encoding/binary"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/peft-ml/peft/internal/tensor"
)

// File is a parsed .peft adapter checkpoint.
type File struct {
	Header Header
	data   []byte
}

// Read parses the .peft file at path, validating the header against the
// data section before any tensor is materialized.
func Read(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(raw) < fixedHeaderSize {
		return nil, &ValidationError{Details: "file shorter than fixed header"}
	}
	if string(raw[:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	version := binary.LittleEndian.Uint32(raw[4:8])
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	headerLen := binary.LittleEndian.Uint64(raw[8:16])
	if headerLen > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	if uint64(len(raw)) < fixedHeaderSize+headerLen {
		return nil, &ValidationError{Details: "header length exceeds file size"}
	}

	var header Header
	if err := json.Unmarshal(raw[fixedHeaderSize:fixedHeaderSize+headerLen], &header); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	if len(header.Tensors) > MaxTensorCount {
		return nil, ErrTooManyTensors
	}

	dataStart := align(fixedHeaderSize + headerLen)
	if dataStart > uint64(len(raw)) {
		dataStart = uint64(len(raw))
	}
	f := &File{Header: header, data: raw[dataStart:]}

	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// validate checks every tensor entry against the data section.
func (f *File) validate() error {
	seen := make(map[string]bool, len(f.Header.Tensors))
	for _, meta := range f.Header.Tensors {
		if seen[meta.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateTensor, meta.Name)
		}
		seen[meta.Name] = true

		if meta.OffsetEnd < meta.OffsetStart {
			return &ValidationError{Tensor: meta.Name, Details: "negative extent"}
		}
		if meta.OffsetEnd > uint64(len(f.data)) {
			return fmt.Errorf("%w: %q", ErrOutOfBounds, meta.Name)
		}

		dtype, err := parseDType(meta.DType)
		if err != nil {
			return fmt.Errorf("tensor %q: %w", meta.Name, err)
		}
		expected := uint64(tensor.Shape(meta.Shape).NumElements() * dtype.Size())
		if meta.OffsetEnd-meta.OffsetStart != expected {
			return &ValidationError{
				Tensor:  meta.Name,
				Details: fmt.Sprintf("extent %d does not match shape %v (%d bytes)", meta.OffsetEnd-meta.OffsetStart, meta.Shape, expected),
			}
		}
	}
	return nil
}

// Names returns the tensor names in header order.
func (f *File) Names() []string {
	names := make([]string, len(f.Header.Tensors))
	for i, meta := range f.Header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// Tensor materializes the named tensor from the data section.
func (f *File) Tensor(name string) (*tensor.RawTensor, error) {
	for _, meta := range f.Header.Tensors {
		if meta.Name != name {
			continue
		}
		dtype, err := parseDType(meta.DType)
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", name, err)
		}
		raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype, tensor.CPU)
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", name, err)
		}
		copy(raw.Bytes(), f.data[meta.OffsetStart:meta.OffsetEnd])
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrTensorNotFound, name)
}

func parseDType(s string) (tensor.DataType, error) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, nil
	case DTypeFloat64:
		return tensor.Float64, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDType, s)
	}
}
