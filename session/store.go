// Package session implements keyed persistence of supervisor conversation
// state across invocations of the same logical conversation.
package session

import (
	"context"
	"errors"

	"github.com/hupe1980/supportmesh/core"
)

// ErrUnavailable indicates the backing store could not be reached. It is
// distinct from a missing session: callers must never proceed with a blank
// state when a prior state may exist.
var ErrUnavailable = errors.New("session store unavailable")

// Store persists conversation state per session key.
//
// Contract:
//   - Load returns (state, true, nil) for an existing key and
//     (nil, false, nil) for a genuinely-new one; infrastructure failures are
//     reported as errors wrapping ErrUnavailable.
//   - Save overwrites the state stored under key.
//   - Implementations must be safe for concurrent use; serializing the
//     load-run-store cycle per key is the caller's responsibility.
type Store interface {
	Load(ctx context.Context, key string) (*core.State, bool, error)
	Save(ctx context.Context, key string, state *core.State) error
}
