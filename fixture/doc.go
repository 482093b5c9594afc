// Package fixture reads replay fixtures: recorded action streams plus the
// expected post-execution byte snapshots that verify them.
//
// Fixtures are record-oriented YAML, written by trace capture and edited
// by humans. The top level carries three sections:
//
//	features:
//	  - compute-shaders
//	expectations:
//	  - name: shader output
//	    buffer: [0, 1, Empty]
//	    offset: 0
//	    data: [0, 0, 0, 0]
//	actions:
//	  - createBuffer:
//	      id: [0, 1, Empty]
//	      size: 16
//	      usage: [STORAGE, MAP_READ]
//	  - submit:
//	      index: 1
//	      commandLists: [...]
//
// Every action is a single-key mapping; the key is the variant tag.
// Decoding is exhaustive with a fail-fast default, so a fixture written
// for a newer action vocabulary is rejected instead of half-replayed.
//
// Resource ids are (index, epoch, backend-tag) triples copied verbatim
// from the recording. Byte payloads are inline sequences or {blob: name}
// references resolved through a Loader.
//
// The package is purely syntactic: it produces data, never touches the
// engine. The replay package consumes the result.
package fixture
