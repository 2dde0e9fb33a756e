package cache

import (
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerMu sync.RWMutex
	pkgLog   = zerolog.Nop()
)

// SetLogger routes cache logs to l, tagged component=trust_cache.
// Until called the package is silent.
func SetLogger(l *zerolog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	pkgLog = l.With().Str("component", "trust_cache").Logger()
}

func logger() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return pkgLog
}
