package drape

import "errors"

var (
	// ErrDisabled is returned by Mount when the capability check selected
	// the disabled mode. It is a supported outcome: the caller shows its
	// static fallback instead.
	ErrDisabled = errors.New("drape: effects disabled")

	// ErrShaderCompile wraps a Kage compile failure. It is logged and
	// contained to the surface that owns the shader; Mount never returns it.
	ErrShaderCompile = errors.New("drape: shader compile failed")

	// ErrUnmounted is returned by operations on an engine or page that has
	// already been torn down.
	ErrUnmounted = errors.New("drape: already unmounted")

	// ErrInvalidConfig is wrapped by Config.Validate and LoadConfig.
	ErrInvalidConfig = errors.New("drape: invalid config")
)
