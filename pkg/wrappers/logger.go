package wrappers

import "github.com/samvad-hq/lnk/pkg/logging"

// Logger defines the logging surface wrappers rely on.
type Logger = logging.Logger
