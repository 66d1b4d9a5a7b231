package dialog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/voice"
)

// MaxConfirmAttempts caps how many replies a confirmation listens for
// before defaulting to no.
const MaxConfirmAttempts = 2

// Confirmation prompts.
const (
	ConfirmPrompt = "Going to %s. Is that okay?"
	ReaskPrompt   = "Not sure. Yes or no?"
)

// Dialog is what an executing intent may need from whoever is talking to
// the user.
type Dialog interface {
	// Say speaks a line. Delivery failures are the dialog's concern.
	Say(ctx context.Context, text string)

	// Confirm asks whether to proceed with action. Any failure to obtain
	// a clear yes resolves to false.
	Confirm(ctx context.Context, action string) bool
}

// Exchange is a single speak/hear channel. ok=false from Hear means no
// reply was obtained.
type Exchange interface {
	Say(ctx context.Context, text string)
	Hear(ctx context.Context) (reply string, ok bool)
}

// RunConfirmation asks about action over ex and loops on unclear replies,
// re-asking once before defaulting to no.
func RunConfirmation(ctx context.Context, ex Exchange, action string) bool {
	ex.Say(ctx, fmt.Sprintf(ConfirmPrompt, action))
	for attempt := 1; attempt <= MaxConfirmAttempts; attempt++ {
		reply, ok := ex.Hear(ctx)
		if !ok {
			return false
		}
		switch ParseConfirmation(reply) {
		case Yes:
			return true
		case No:
			return false
		}
		if attempt < MaxConfirmAttempts {
			ex.Say(ctx, ReaskPrompt)
		}
	}
	return false
}

// VoiceDialog runs dialogs straight over a voice transport.
type VoiceDialog struct {
	io     voice.IO
	logger *zap.Logger
}

// NewVoiceDialog wraps io. A nil logger disables logging.
func NewVoiceDialog(io voice.IO, logger *zap.Logger) *VoiceDialog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoiceDialog{io: io, logger: logger}
}

// Say implements Dialog.
func (d *VoiceDialog) Say(ctx context.Context, text string) {
	if err := d.io.Speak(ctx, text); err != nil {
		d.logger.Warn("speak failed", zap.String("text", text), zap.Error(err))
	}
}

// Hear implements Exchange.
func (d *VoiceDialog) Hear(ctx context.Context) (string, bool) {
	text, err := d.io.ListenOnce(ctx)
	if err != nil {
		if !errors.Is(err, voice.ErrNoInput) {
			d.logger.Debug("listen ended", zap.Error(err))
		}
		return "", false
	}
	return text, true
}

// Confirm implements Dialog.
func (d *VoiceDialog) Confirm(ctx context.Context, action string) bool {
	return RunConfirmation(ctx, d, action)
}

// Silent is a Dialog with nobody on the other end: it says nothing and
// never confirms.
type Silent struct{}

// Say implements Dialog.
func (Silent) Say(context.Context, string) {}

// Confirm implements Dialog.
func (Silent) Confirm(context.Context, string) bool { return false }
