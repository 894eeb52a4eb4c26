package tuner

import (
	"fmt"
	"os"
	"strings"

	"github.com/aduadu321/wooting-aim/gamestate"
	"github.com/aduadu321/wooting-aim/movement"

	"golang.org/x/term"
)

// display redraws an inline status line a couple of times per second.
// It stays silent when stdout is not a terminal so piped output only
// carries log records.
type display struct {
	enabled  bool
	adaptive bool
	velocity bool
}

type frame struct {
	hz             float64
	a, d           float32
	h, v           *movement.Axis
	crouching      bool
	game           gamestate.Snapshot
	velH, velV     float32
	maxSpeed       float32
	timeToAccurate float64
	writer         *Writer
}

func newDisplay(adaptive, velocity bool) *display {
	return &display{
		enabled:  term.IsTerminal(int(os.Stdout.Fd())),
		adaptive: adaptive,
		velocity: velocity,
	}
}

func bar(val float32) string {
	const width = 20
	n := int(val * width)
	if n > width {
		n = width
	}
	return strings.Repeat("#", n) + strings.Repeat(".", width-n)
}

func axisTag(ax *movement.Axis) string {
	tag := ax.State.String()
	if ax.Predictive {
		tag += "*"
	}
	if ax.Jiggle {
		tag += "J"
	}
	return tag
}

func (d *display) render(f frame) {
	if !d.enabled {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\r[%5.0fk]", f.hz/1000.0)
	fmt.Fprintf(&sb, " A:%s D:%s", bar(f.a), bar(f.d))
	fmt.Fprintf(&sb, " [H:%s V:%s", axisTag(f.h), axisTag(f.v))
	if f.crouching {
		sb.WriteString(" C")
	}
	sb.WriteString("]")

	if f.game.Connected {
		phase := f.game.RoundPhase
		if phase == "" {
			phase = "?"
		}
		fmt.Fprintf(&sb, " %s/%s", f.game.Category, phase)
	} else {
		sb.WriteString(" noGSI")
	}

	if d.adaptive && f.writer != nil {
		cur := f.writer.Current()
		fmt.Fprintf(&sb, " A:%.1f/%.1f D:%.1f/%.1f",
			cur[KeyA].AP, cur[KeyA].RT, cur[KeyD].AP, cur[KeyD].RT)
		fmt.Fprintf(&sb, " #%d", f.writer.Count())
	}

	if d.velocity {
		total := movement.TotalSpeed(f.velH, f.velV)
		threshold := float64(f.maxSpeed) * movement.AccuracyFactor
		if total < threshold {
			fmt.Fprintf(&sb, " v:%.0fOK", total)
		} else {
			fmt.Fprintf(&sb, " v:%.0f>%.0fms", total, f.timeToAccurate)
		}
	}

	if f.h.CounterCount > 0 {
		fmt.Fprintf(&sb, " avg:%.0fms", f.h.CounterTotalMS/float64(f.h.CounterCount))
	}

	sb.WriteString("   ")
	_, _ = os.Stdout.WriteString(sb.String())
}
