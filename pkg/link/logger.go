package link

import "github.com/samvad-hq/lnk/pkg/logging"

// Logger is the logging surface shared with every wrapper the registry builds.
type Logger = logging.Logger
