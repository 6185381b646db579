package launcher

import (
	"errors"

	"github.com/Smithed-MC/UX/pkg/resolver"
)

// ErrAlreadyRunning is returned by Start while another session occupies the
// launch slot.
var ErrAlreadyRunning = errors.New("a bundle is already running")

// ErrConfig covers bundle store and engine configuration failures.
var ErrConfig = resolver.ErrConfig
