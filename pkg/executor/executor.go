// Package executor defines the device automation primitives the assistant
// drives, plus a dry-run implementation that only logs them.
package executor

import (
	"context"

	"go.uber.org/zap"
)

// Executor performs device actions. Each call blocks until the action has
// been carried out or has failed.
type Executor interface {
	OpenApp(ctx context.Context, app string) error
	Click(ctx context.Context, x, y int) error

	// FindElement locates a described on-screen element. found=false with
	// a nil error means the screen was analysed but nothing matched.
	FindElement(ctx context.Context, description string) (x, y int, found bool, err error)

	TypeText(ctx context.Context, text string) error
	Scroll(ctx context.Context, direction string) error
	Search(ctx context.Context, query string) error
	Navigate(ctx context.Context, destination string) error
}

// DryRun logs every primitive and reports success. FindElement always
// reports the centre of a 1080x2400 screen.
type DryRun struct {
	logger *zap.Logger
}

// NewDryRun creates a DryRun executor.
func NewDryRun(logger *zap.Logger) *DryRun {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRun{logger: logger.Named("executor")}
}

func (d *DryRun) OpenApp(_ context.Context, app string) error {
	d.logger.Info("open app", zap.String("app", app))
	return nil
}

func (d *DryRun) Click(_ context.Context, x, y int) error {
	d.logger.Info("click", zap.Int("x", x), zap.Int("y", y))
	return nil
}

func (d *DryRun) FindElement(_ context.Context, description string) (int, int, bool, error) {
	d.logger.Info("find element", zap.String("description", description))
	return 540, 1200, true, nil
}

func (d *DryRun) TypeText(_ context.Context, text string) error {
	d.logger.Info("type text", zap.Int("length", len(text)))
	return nil
}

func (d *DryRun) Scroll(_ context.Context, direction string) error {
	d.logger.Info("scroll", zap.String("direction", direction))
	return nil
}

func (d *DryRun) Search(_ context.Context, query string) error {
	d.logger.Info("search", zap.String("query", query))
	return nil
}

func (d *DryRun) Navigate(_ context.Context, destination string) error {
	d.logger.Info("navigate", zap.String("destination", destination))
	return nil
}
