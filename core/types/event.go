package types

// Event represents a typed notification emitted during a state transition.
// Attributes are flat string pairs so downstream consumers (gateway, indexers)
// can serialise them without knowing the emitting module.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
