package dialogue

import "errors"

// ErrInvalidConfiguration marks a content or configuration problem that makes
// the engine unusable. It is raised at startup and never recovered.
var ErrInvalidConfiguration = errors.New("invalid configuration")
