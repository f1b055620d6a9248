package types

// Request is a fully rendered generation request: the ordered part sequence
// plus everything that affects the artifact's semantic payload. Optimization
// settings are deliberately absent; they do not belong in cache keys.
type Request struct {
	Kind  AssetType      `json:"kind"`
	Parts []ResolvedPart `json:"parts"`
	Model ModelRef       `json:"model"`
	// Voice is the rendered voice id for audio requests
	Voice string `json:"voice,omitempty"`
}
