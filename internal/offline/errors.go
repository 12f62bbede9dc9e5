package offline

import "errors"

var (
	ErrAssetNotFound   = errors.New("world asset not found")
	ErrWorldLoadFailed = errors.New("world failed to load")
	ErrNoValidWorld    = errors.New("no valid world specified")
	ErrInvalidOptions  = errors.New("invalid offline session options")
	ErrSelectFailed    = errors.New("session could not be made current")
	ErrModuleDisposed  = errors.New("offline module disposed")
)
