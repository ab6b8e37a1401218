package usecase

import (
	"context"

	"github.com/fastygo/dailywork/domain"
)

// ActivityRecorder receives task events after successful mutations so use
// cases stay unaware of how the journal is stored.
type ActivityRecorder interface {
	Record(ctx context.Context, event domain.TaskEvent) error
}
