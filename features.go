package replay

import "github.com/gogpu/replay/backend"

// Supported reports whether a backend declares every required capability.
//
// An unsupported fixture is skipped, not failed: the feature gate models a
// soft precondition. Missing returns the capabilities that blocked the
// run, for reporting.
func Supported(required []string, caps backend.Capabilities) bool {
	return len(Missing(required, caps)) == 0
}

// Missing returns the required capability names the backend lacks,
// preserving fixture order.
func Missing(required []string, caps backend.Capabilities) []string {
	var missing []string
	for _, name := range required {
		if !caps.HasFeature(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
