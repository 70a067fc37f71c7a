package storage

import (
	"fmt"
	"strings"

	logx "nextup/pkg/logx"
)

// Open selects and opens the configured driver.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "none":
		return nil, ErrDisabled
	case "file":
		return openFile(cfg, log)
	case "sqlite":
		return openSQLite(cfg, log)
	default:
		return nil, fmt.Errorf("storage.driver: unknown driver %q", cfg.Driver)
	}
}
