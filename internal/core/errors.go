// Package core defines sentinel errors.
package core

import "errors"

// Structural decode failures. These abort decoding of the current record
// only; integrity and convention violations are Warnings instead.
var (
	ErrRecordTooShort = errors.New("lanescope: capture record too short")
	ErrFrameTooShort  = errors.New("lanescope: frame too short")
	ErrDLLPTooShort   = errors.New("lanescope: dllp too short")
	ErrTLPTooShort    = errors.New("lanescope: tlp too short")

	// Capture reader errors
	ErrUnknownLinkType = errors.New("lanescope: unknown link type")
	ErrNotNetTLP       = errors.New("lanescope: packet is not nettlp")

	// Plugin errors
	ErrPluginNotFound   = errors.New("lanescope: plugin not found")
	ErrPluginInitFailed = errors.New("lanescope: plugin init failed")

	// Configuration errors
	ErrConfigInvalid = errors.New("lanescope: invalid configuration")
)
