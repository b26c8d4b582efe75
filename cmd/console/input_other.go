//go:build !linux

package main

import (
	"fmt"
	"log/slog"

	"github.com/nerftank/console/internal/input"
)

func openInputSource(logger *slog.Logger, device string, width, height float64) (input.Source, error) {
	return nil, fmt.Errorf("pointer device input is only supported on linux")
}
