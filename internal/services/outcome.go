package services

import "mockery-backend/internal/models"

// Outcome is the result of one streamed edit. It is one of Patched,
// Replaced or Failed.
type Outcome interface {
	outcome()
}

// Patched means a change batch was applied to the stored page.
type Patched struct {
	Batch   models.ChangeBatch
	Results []models.OpResult
	Version string
}

// Replaced means the page was regenerated as a whole.
type Replaced struct {
	HTML    string
	Version string
}

// Failed carries the error shown to the user.
type Failed struct {
	Err error
}

func (Patched) outcome()  {}
func (Replaced) outcome() {}
func (Failed) outcome()   {}

// Events converts an outcome into its terminal stream events.
func Events(o Outcome) []models.StreamEvent {
	switch o := o.(type) {
	case Patched:
		return []models.StreamEvent{{
			Type:    models.EventPatches,
			Patches: o.Batch.Changes,
			Results: o.Results,
			Summary: o.Batch.Summary,
			Version: o.Version,
		}, models.DoneEvent()}
	case Replaced:
		return []models.StreamEvent{{
			Type:    models.EventFull,
			HTML:    o.HTML,
			Version: o.Version,
		}, models.DoneEvent()}
	case Failed:
		return []models.StreamEvent{models.ErrorEvent(o.Err.Error())}
	default:
		return []models.StreamEvent{models.ErrorEvent("unknown outcome")}
	}
}
