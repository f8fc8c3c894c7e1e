// Package device runs the capture-describe-speak loop of the assistive camera.
//
// A Controller polls the touch trigger and, on a fresh touch, walks one
// session through its phases:
//
//	Idle → Triggered → Capturing → Analyzing → Synthesizing → Presenting → Idle
//
// Each call to Step performs at most one phase. Phases block on their
// collaborator (camera, vision service, speech service, display) and any
// failure returns the controller to Idle. Audio cues are started and left
// running; they are not synchronized with later phases.
//
// Basic usage:
//
//	ctrl, err := device.New(device.Deps{...})
//	if err != nil {
//	    return err
//	}
//	return ctrl.Run(ctx) // returns nil once ctx is cancelled
package device
