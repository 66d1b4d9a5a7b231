package voice_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/methmouth/Robot/pkg/voice"
)

func TestConsoleSpeak(t *testing.T) {
	var out bytes.Buffer
	c := voice.NewConsole(strings.NewReader(""), &out, voice.WithSpeakerName("Atlas"))

	require.NoError(t, c.Speak(context.Background(), "hello"))
	require.NoError(t, c.Speak(context.Background(), "again"))

	assert.Equal(t, "Atlas: hello\nAtlas: again\n", out.String())
}

func TestConsoleSpeakCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := voice.NewConsole(strings.NewReader(""), io.Discard)
	assert.ErrorIs(t, c.Speak(ctx, "hello"), context.Canceled)
}

func TestConsoleListenOnce(t *testing.T) {
	c := voice.NewConsole(strings.NewReader("  open maps \n\nsecond\n"), io.Discard)
	ctx := context.Background()

	text, err := c.ListenOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, "open maps", text)

	_, err = c.ListenOnce(ctx)
	assert.ErrorIs(t, err, voice.ErrNoInput)

	text, err = c.ListenOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", text)

	_, err = c.ListenOnce(ctx)
	assert.ErrorIs(t, err, voice.ErrInputClosed)
}

func TestConsoleListenOnceTimeout(t *testing.T) {
	r, w := io.Pipe()
	defer func() { _ = w.Close() }()

	c := voice.NewConsole(r, io.Discard, voice.WithListenTimeout(20*time.Millisecond))
	_, err := c.ListenOnce(context.Background())
	assert.ErrorIs(t, err, voice.ErrNoInput)
}

func TestConsoleListenContinuous(t *testing.T) {
	c := voice.NewConsole(strings.NewReader("one\n\ntwo\nthree\n"), io.Discard)

	var heard []string
	err := c.ListenContinuous(context.Background(), func(text string) {
		heard = append(heard, text)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, heard)
}
