package processors

import (
	"context"

	"github.com/roach88/cuetest/internal/compiler"
)

const NoopName = "noop"

// Noop does nothing. Its ProcessorRun shows whether processors ran at all.
type Noop struct{}

func (Noop) Name() string { return NoopName }

func (Noop) Process(context.Context, *compiler.Round) error { return nil }
