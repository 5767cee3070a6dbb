package models

// Change operation actions proposed by the model.
const (
	ActionReplace      = "replace"
	ActionInsert       = "insert"
	ActionRemove       = "remove"
	ActionSetAttribute = "setAttribute"
	ActionAddClass     = "addClass"
	ActionRemoveClass  = "removeClass"
	ActionSetStyle     = "setStyle"
)

// Insert positions relative to the matched element.
const (
	PositionBefore  = "before"
	PositionAfter   = "after"
	PositionPrepend = "prepend"
	PositionAppend  = "append"
)

// ChangeOperation is one DOM mutation instruction. Fields beyond Action and
// Selector are action specific.
type ChangeOperation struct {
	Action    string `json:"action"`
	Selector  string `json:"selector"`
	Content   string `json:"content,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Value     string `json:"value,omitempty"`
	Class     string `json:"class,omitempty"`
	Position  string `json:"position,omitempty"`
}

// ChangeBatch is the JSON document the model answers with in patch mode.
type ChangeBatch struct {
	Changes []ChangeOperation `json:"changes"`
	Summary string            `json:"summary"`
}

// Per-operation outcome of applying a batch.
const (
	OpApplied = "applied"
	OpSkipped = "skipped"
	OpFailed  = "failed"
)

type OpResult struct {
	Index     int    `json:"index"`
	Action    string `json:"action"`
	Selector  string `json:"selector"`
	Status    string `json:"status"`
	Matched   int    `json:"matched"`
	Highlight bool   `json:"highlight"`
	Error     string `json:"error,omitempty"`
}
