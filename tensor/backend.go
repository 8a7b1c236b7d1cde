// Copyright 2025 PEFT-Go Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/peft-ml/peft/internal/tensor"

// Backend defines the interface that all compute backends must
// implement. Backends handle the actual computation for tensor
// operations.
//
// Implementations:
//   - backend/cpu: pure Go reference implementation
//
// Example:
//
//	import (
//	    "github.com/peft-ml/peft/backend/cpu"
//	    "github.com/peft-ml/peft/tensor"
//	)
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
type Backend = tensor.Backend
