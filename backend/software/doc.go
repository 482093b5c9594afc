// Package software provides a pure Go compute backend.
//
// Shaders are compiled from WGSL through the naga frontend and executed by
// a deterministic interpreter over the naga IR. Invocations run
// sequentially in a fixed order, so replaying the same submission stream
// against the same inputs always produces identical buffer contents.
//
// The backend registers itself under the name "software":
//
//	import _ "github.com/gogpu/replay/backend/software"
//
// The interpreter covers the compute subset of WGSL: storage and uniform
// buffer bindings, workgroup and private memory, structured control flow,
// integer and f32 arithmetic, and function calls. Texture sampling, atomics
// and ray queries are rejected at dispatch with ErrUnsupportedShader.
package software
