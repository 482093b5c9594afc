// Package backend provides a pluggable execution backend abstraction for
// the replay engine.
//
// The engine owns resource state, ordering and validation; a backend only
// compiles shader modules and produces the observable effect of a compute
// dispatch on the byte windows bound to it. This keeps the replay contract
// identical no matter which physical implementation executes the work.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software backend is registered on import:
//
//	import _ "github.com/gogpu/replay/backend/software"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	// Get the default (best available) backend
//	b := backend.Default()
//
//	// Or request a specific backend
//	b := backend.Get("software")
//
// # Available Backends
//
// - "software": deterministic pure Go executor built on gogpu/naga
// - "wgpu": GPU execution via gogpu/wgpu (future)
package backend
