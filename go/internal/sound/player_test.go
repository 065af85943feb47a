package sound

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampVolume(t *testing.T) {
	assert.Equal(t, 1.0, ClampVolume(1.2))
	assert.Equal(t, 0.0, ClampVolume(-0.5))
	assert.Equal(t, VolumeFrameAdvance, ClampVolume(VolumeFrameAdvance))
}

func TestFile(t *testing.T) {
	assert.Equal(t, "countdown.mp3", File(CueCountdown))
	assert.Equal(t, File(CueFrameAdvance), File(CueBlockTransition))
	assert.Equal(t, "fini.mp3", File(CueFinish))
	assert.Empty(t, File(CueBackground))
}

func TestBellPlayer(t *testing.T) {
	var buf bytes.Buffer
	p := NewBellPlayer(&buf)
	ctx := context.Background()

	require.NoError(t, p.Play(ctx, CueCountdown, Options{Volume: VolumeFull}))
	require.NoError(t, p.Play(ctx, CueFrameAdvance, Options{Volume: VolumeFrameAdvance}))
	require.NoError(t, p.Play(ctx, CueBackground, Options{Volume: VolumeFull, Loop: true}))
	require.NoError(t, p.Play(ctx, CueFinish, Options{Volume: VolumeFull}))
	p.StopAll()

	assert.Equal(t, "\a\a", buf.String())
}

func TestLogPlayerNeverFails(t *testing.T) {
	p := NewLogPlayer()
	require.NoError(t, p.Play(context.Background(), CueFinish, Options{Volume: VolumeFull}))
	p.Stop(CueFinish)
	p.StopAll()
}
