// Package replay is a trace replay and verification engine for recorded
// GPU API fixtures.
//
// # Overview
//
// A fixture is a recorded sequence of API actions (resource creation, data
// uploads, command submission) together with a set of expected
// post-execution byte snapshots. The engine replays the actions against a
// backend and asserts that the final observable buffer state matches the
// expectations. It is the correctness harness behind the GoGPU compute
// stack: the same fixture runs unchanged against any registered backend.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/replay"
//	    "github.com/gogpu/replay/fixture"
//	    _ "github.com/gogpu/replay/backend/software"
//	)
//
//	fix, err := fixture.Load("storage_dispatch.yaml")
//	if err != nil {
//	    ...
//	}
//	player, err := replay.NewPlayer(nil) // default backend
//	if err != nil {
//	    ...
//	}
//	player.Loader = fixture.NewDirLoader(".")
//	report, err := player.Run(fix)
//
// A non-nil error means the fixture is malformed or the backend does not
// conform to the replay contract; expectation mismatches are not errors,
// they are collected in the report.
//
// # Architecture
//
// The engine is organized into:
//   - Public API: Player, Session, Report
//   - Handle table: generational (index, epoch) registry for every resource
//   - Resource factory: buffers, shader modules, bind group layouts, bind
//     groups, pipeline layouts, compute pipelines
//   - Upload engine: immediate and queued buffer writes
//   - Recorder/submitter: command lists and serialized submissions
//   - Readback and verification: mapped reads gated on submission completion
//
// Backends live in the backend package and register themselves the way
// database/sql drivers do. The built-in software backend compiles WGSL with
// gogpu/naga and executes dispatches with a deterministic interpreter.
//
// # Determinism
//
// Fixtures carry pre-recorded resource ids and submission indexes. Replay
// reproduces the exact (index, epoch) bookkeeping of the original recording
// and cross-checks submission indexes, so any drift between the engine and
// the trace is detected instead of silently replayed wrong.
package replay

// Version information
const (
	// Version is the current version of the engine.
	Version = "0.3.0"
)
