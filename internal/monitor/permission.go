package monitor

import "context"

// PermissionCheck reports whether location access has been granted.
// On server deployments this is usually a static yes; on device-bridged
// deployments it reflects the OS permission state.
type PermissionCheck interface {
	HasLocationAccess(ctx context.Context) bool
}

// StaticPermission is a fixed permission answer.
type StaticPermission bool

func (p StaticPermission) HasLocationAccess(context.Context) bool {
	return bool(p)
}
