package simulation

import (
	"errors"

	"github.com/zeusync/fleetsim/internal/core/handle"
)

var (
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrStaleHandle     = handle.ErrStaleHandle
)
