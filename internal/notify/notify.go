// Package notify defines how results are reported back to the user.
//
// A Sink receives short messages (a heading plus an optional body) and owns
// their rendering. A View receives the running indicator and the controls
// state around a script execution. Core packages only call these interfaces;
// Terminal and Log are the implementations used by the CLI.
package notify

type Sink interface {
	Success(heading, body string)
	Error(heading, detail string)
	Warning(heading, body string, persistent bool)
	Info(heading, body string, persistent bool)
}

type View interface {
	SetRunningIndicator(running bool)
	SetControlsEnabled(enabled bool)
}

// Kind of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// NopView ignores all presentation changes.
type NopView struct{}

func (NopView) SetRunningIndicator(bool) {}
func (NopView) SetControlsEnabled(bool)  {}
