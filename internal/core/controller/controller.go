package controller

import (
	"github.com/zeusync/offline/internal/core/spatial"
)

// Controller is an input binding exposing a set of keyed body parts.
type Controller interface {
	Parts() []Part
	Part(key uint16) (Part, bool)
}

// Part is the controller-side view of one body segment.
type Part interface {
	Key() uint16
	Transform() spatial.Transform
}

// Provider exposes the controller currently bound by the host, or nil.
type Provider interface {
	Current() Controller
}

// Rig part keys.
const (
	RigBase uint16 = iota
	RigHead
	RigLeftHand
	RigRightHand
	RigLeftFoot
	RigRightFoot
)

var rigNames = map[uint16]string{
	RigBase:      "base",
	RigHead:      "head",
	RigLeftHand:  "left_hand",
	RigRightHand: "right_hand",
	RigLeftFoot:  "left_foot",
	RigRightFoot: "right_foot",
}

// RigName returns the human name of a rig key, or "" if it is not a known rig part.
func RigName(key uint16) string {
	return rigNames[key]
}

// RigKey resolves a rig part name.
func RigKey(name string) (uint16, bool) {
	for k, n := range rigNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Keys returns the part keys of c in the order the controller reports them.
func Keys(c Controller) []uint16 {
	if c == nil {
		return nil
	}
	parts := c.Parts()
	keys := make([]uint16, 0, len(parts))
	for _, p := range parts {
		keys = append(keys, p.Key())
	}
	return keys
}
