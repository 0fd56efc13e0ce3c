package jobs

import (
	"context"

	"go.uber.org/zap"
)

// SlotSweeper is the part of availability.Service SlotSweep uses.
type SlotSweeper interface {
	SweepPastSlots(ctx context.Context) (int64, error)
}

// SlotSweep deletes open slots whose start has passed so the bookable
// inventory only holds future slots.
type SlotSweep struct {
	slots  SlotSweeper
	logger *zap.Logger
}

func NewSlotSweep(slots SlotSweeper, logger *zap.Logger) *SlotSweep {
	return &SlotSweep{slots: slots, logger: logger}
}

func (j *SlotSweep) Name() string { return "slot_sweep" }

func (j *SlotSweep) Run(ctx context.Context) error {
	n, err := j.slots.SweepPastSlots(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info("past open slots removed", zap.Int64("slots", n))
	}
	return nil
}
