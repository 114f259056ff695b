package monitor

import "github.com/grycap/onetrigger/internal/models"

// Observer receives cycle outcomes. Implementations must not block for long
// and their failures never affect the poll loop.
type Observer interface {
	CycleCompleted(report models.CycleReport)
	CycleFailed(failure models.CycleFailure)
}

// Observers fans out to several observers in order
type Observers []Observer

func (o Observers) CycleCompleted(report models.CycleReport) {
	for _, obs := range o {
		obs.CycleCompleted(report)
	}
}

func (o Observers) CycleFailed(failure models.CycleFailure) {
	for _, obs := range o {
		obs.CycleFailed(failure)
	}
}
