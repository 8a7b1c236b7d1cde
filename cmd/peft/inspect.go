package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/peft-ml/peft/internal/serialization"
)

func inspectCmd() *cli.Command {
	var checkpointPath string

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Dump the tensor table of a .peft adapter checkpoint",
		ArgsUsage: "<checkpoint.peft>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			checkpointPath = cmd.Args().First()
			if checkpointPath == "" {
				return fmt.Errorf("missing checkpoint path")
			}

			file, err := serialization.Read(checkpointPath)
			if err != nil {
				return fmt.Errorf("failed to open checkpoint: %w", err)
			}

			header := file.Header
			fmt.Printf("format version: %d\n", header.FormatVersion)
			fmt.Printf("library:        %s\n", header.Library)
			fmt.Printf("created at:     %s\n", header.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			for k, v := range header.Metadata {
				fmt.Printf("metadata:       %s=%s\n", k, v)
			}
			fmt.Println()

			var totalBytes uint64
			var totalElements int
			fmt.Printf("%-48s %-8s %-16s %12s\n", "name", "dtype", "shape", "bytes")
			fmt.Println(strings.Repeat("-", 88))
			for _, meta := range header.Tensors {
				size := meta.OffsetEnd - meta.OffsetStart
				totalBytes += size
				elements := 1
				for _, d := range meta.Shape {
					elements *= d
				}
				totalElements += elements
				fmt.Printf("%-48s %-8s %-16s %12d\n", meta.Name, meta.DType, shapeString(meta.Shape), size)
			}
			fmt.Println(strings.Repeat("-", 88))
			fmt.Printf("%d tensors, %d elements, %d bytes\n", len(header.Tensors), totalElements, totalBytes)
			return nil
		},
	}
}

func shapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
