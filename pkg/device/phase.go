package device

import "fmt"

// Phase is one state of the control loop.
type Phase int

const (
	Idle Phase = iota
	Triggered
	Capturing
	Analyzing
	Synthesizing
	Presenting
)

var phaseNames = [...]string{
	Idle:         "idle",
	Triggered:    "triggered",
	Capturing:    "capturing",
	Analyzing:    "analyzing",
	Synthesizing: "synthesizing",
	Presenting:   "presenting",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// next returns the phase that follows p in a successful session.
func (p Phase) next() Phase {
	if p == Presenting {
		return Idle
	}
	return p + 1
}

// Status lines shown on the display.
const (
	StatusReady     = "Device is ready"
	StatusCapturing = "Taking photo ..."
	StatusAnalyzing = "Analysing image ..."
)
