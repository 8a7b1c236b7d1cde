package serialization

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/peft-ml/peft/internal/tensor"
)

// Write serializes a set of named tensors to a .peft file at path.
// Tensors are laid out in lexicographic name order so the output is
// deterministic for a given input.
func Write(path string, tensors map[string]*tensor.RawTensor, metadata map[string]string) (err error) {
	if len(tensors) > MaxTensorCount {
		return ErrTooManyTensors
	}

	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if len(name) > MaxTensorName {
			return fmt.Errorf("%w: %q", ErrTensorNameTooLong, name[:32]+"...")
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{
		FormatVersion: FormatVersion,
		Library:       libraryVersion,
		CreatedAt:     time.Now().UTC(),
		Metadata:      metadata,
	}

	var offset uint64
	for _, name := range names {
		t := tensors[name]
		dtype, err := dtypeString(t.DType())
		if err != nil {
			return fmt.Errorf("tensor %q: %w", name, err)
		}
		size := uint64(len(t.Bytes()))
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:        name,
			DType:       dtype,
			Shape:       append([]int(nil), t.Shape()...),
			OffsetStart: offset,
			OffsetEnd:   offset + size,
		})
		offset = align(offset + size)
	}

	headerJSON, err := json.Marshal(&header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	w := bufio.NewWriter(f)

	if _, err := w.WriteString(MagicBytes); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return err
	}
	if _, err := w.Write(headerJSON); err != nil {
		return err
	}

	// Pad so the data section starts at an aligned offset.
	written := uint64(fixedHeaderSize + len(headerJSON))
	if err := writePadding(w, align(written)-written); err != nil {
		return err
	}

	var pos uint64
	for _, name := range names {
		data := tensors[name].Bytes()
		if _, err := w.Write(data); err != nil {
			return err
		}
		pos += uint64(len(data))
		if pad := align(pos) - pos; pad > 0 {
			if err := writePadding(w, pad); err != nil {
				return err
			}
			pos += pad
		}
	}

	return w.Flush()
}

func writePadding(w *bufio.Writer, n uint64) error {
	for i := uint64(0); i < n; i++ {
		if err := w.WriteByte(0); err != nil {
			return err
		}
	}
	return nil
}

func dtypeString(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32, nil
	case tensor.Float64:
		return DTypeFloat64, nil
	default:
		return "", fmt.Errorf("%w: %v", ErrUnknownDType, dt)
	}
}
