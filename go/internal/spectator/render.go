package spectator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mcdev12/tiforama/go/internal/animation"
	"github.com/mcdev12/tiforama/go/internal/choreography"
)

// Renderer turns engine snapshots into terminal lines.
type Renderer struct {
	model *choreography.Model
	icons bool
	color bool
}

// NewRenderer renders frames of model. With icons set, frames show their icon
// name; with color set, a 24-bit ANSI swatch of the frame color.
func NewRenderer(model *choreography.Model, icons, color bool) *Renderer {
	return &Renderer{model: model, icons: icons, color: color}
}

// Line renders one snapshot.
func (r *Renderer) Line(snap animation.Snapshot) string {
	var b strings.Builder

	switch snap.Lifecycle {
	case animation.Idle:
		b.WriteString("ready")
	case animation.CountingDown:
		fmt.Fprintf(&b, "starting in %s", seconds(snap.CountdownRemainingMillis))
	case animation.Playing:
		b.WriteString(r.frame(snap))
	case animation.Finished:
		if snap.ShowCompletion {
			b.WriteString("finished, well done!")
		} else {
			b.WriteString("finished")
		}
	}

	if snap.Offline {
		fmt.Fprintf(&b, "  [offline, offset %+dms]", snap.ClockOffsetMillis)
	}
	return b.String()
}

func (r *Renderer) frame(snap animation.Snapshot) string {
	frame, ok := r.model.Frame(snap.CurrentFrameIndex)
	if !ok {
		return "playing"
	}

	hex := r.model.PaletteColor(frame.ColorIndex)
	label := hex
	if r.icons {
		if icon, err := r.model.IconFor(frame.ColorIndex); err == nil {
			label = icon
		}
	}
	if r.color {
		label = swatch(hex) + " " + label
	}

	return fmt.Sprintf("frame %d/%d  %s  %s left",
		snap.CurrentFrameIndex+1, r.model.FrameCount(), label, seconds(snap.RemainingMillisInFrame))
}

func seconds(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000, 'f', 1, 64) + "s"
}

// swatch is a block of background color for a #RGB or #RRGGBB value, or the
// empty string when hex cannot be parsed.
func swatch(hex string) string {
	h := strings.TrimPrefix(hex, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return ""
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm      \x1b[0m", v>>16&0xff, v>>8&0xff, v&0xff)
}
