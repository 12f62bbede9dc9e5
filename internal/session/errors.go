package session

import "errors"

var (
	ErrInvalidIndex      = errors.New("dimension index out of range")
	ErrDimensionNotFound = errors.New("dimension not found")
	ErrMainDimension     = errors.New("failed to create main dimension")
	ErrNoWorld           = errors.New("no world assigned")
	ErrWorldAssigned     = errors.New("world already assigned")
	ErrAlreadyRegistered = errors.New("entity already registered")
	ErrNotRegistered     = errors.New("entity not registered")
	ErrUnsupported       = errors.New("operation not supported in offline sessions")
	ErrNoPhysicalFactory = errors.New("no physical representation factory")
	ErrNoSpawnModule     = errors.New("no spawn module found")
)
