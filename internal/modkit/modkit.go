// Package modkit provides module wiring and core deps
package modkit

import (
	phttp "greenhouse/internal/platform/net/http"
)

// Module is the common surface for API modules that can mount routes
// keep this tiny so modules stay decoupled
type Module interface {
	// MountRoutes mounts HTTP routes under the provided router seam
	MountRoutes(r phttp.Router)

	// Name returns the module name
	Name() string
}
