package logger

// LogEntry is a single recorded event. Exactly one of the event fields is set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	RunCommand   *RunCommand   `json:"run_command,omitempty"`
	CommandExit  *CommandExit  `json:"command_exit,omitempty"`
	Builtin      *Builtin      `json:"builtin,omitempty"`
	Assignment   *Assignment   `json:"assignment,omitempty"`
	SetupFailure *SetupFailure `json:"setup_failure,omitempty"`
}

// LogType is implemented by every event that can be stored in a LogEntry.
type LogType interface {
	setOn(le *LogEntry)
}

// GetLogType returns the event held by the entry, or nil if there is none.
func (le *LogEntry) GetLogType() LogType {
	switch {
	case le.RunCommand != nil:
		return le.RunCommand
	case le.CommandExit != nil:
		return le.CommandExit
	case le.Builtin != nil:
		return le.Builtin
	case le.Assignment != nil:
		return le.Assignment
	case le.SetupFailure != nil:
		return le.SetupFailure
	default:
		return nil
	}
}

// RunCommand is logged when an external program is started.
type RunCommand struct {
	Command             []string `json:"command"`
	ResolvedCommandPath string   `json:"resolved_command_path"`
	Dir                 string   `json:"dir"`
	Level               int      `json:"level"`
	Pid                 int      `json:"pid"`
}

func (e *RunCommand) setOn(le *LogEntry) { le.RunCommand = e }

// CommandExit is logged when an external program terminates.
type CommandExit struct {
	Command []string `json:"command"`
	Pid     int      `json:"pid"`
	Status  int      `json:"status"`
	// Signal is set when the program was killed or stopped by a signal.
	Signal  int  `json:"signal,omitempty"`
	Stopped bool `json:"stopped,omitempty"`
}

func (e *CommandExit) setOn(le *LogEntry) { le.CommandExit = e }

// Builtin is logged when a builtin runs inside the evaluator.
type Builtin struct {
	Command []string `json:"command"`
	Status  int      `json:"status"`
	Level   int      `json:"level"`
}

func (e *Builtin) setOn(le *LogEntry) { le.Builtin = e }

// Assignment is logged for NAME=value leaves. Values aren't recorded, they
// commonly hold secrets.
type Assignment struct {
	Name   string `json:"name"`
	Status int    `json:"status"`
}

func (e *Assignment) setOn(le *LogEntry) { le.Assignment = e }

// SetupFailure is logged when a pipe, redirection or process couldn't be
// created.
type SetupFailure struct {
	Stage   string   `json:"stage"`
	Command []string `json:"command,omitempty"`
	Error   string   `json:"error"`
}

func (e *SetupFailure) setOn(le *LogEntry) { le.SetupFailure = e }
