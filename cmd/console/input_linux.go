//go:build linux

package main

import (
	"log/slog"

	"github.com/nerftank/console/internal/input"
)

func openInputSource(logger *slog.Logger, device string, width, height float64) (input.Source, error) {
	return input.OpenEvdev(logger, device, width, height)
}
