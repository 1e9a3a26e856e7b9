package modkit

import (
	"greenhouse/internal/modkit/repokit"
	"greenhouse/internal/platform/config"
	"greenhouse/internal/platform/logger"
	"greenhouse/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	KV  store.KV
}
