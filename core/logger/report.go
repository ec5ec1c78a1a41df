package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`
	Sessions       StrCounter `json:"sessions"`

	RunCommand   RunCommandReport   `json:"run_command_report"`
	CommandExit  CommandExitReport  `json:"command_exit_report"`
	Builtin      BuiltinReport      `json:"builtin_report"`
	Assignment   AssignmentReport   `json:"assignment_report"`
	SetupFailure SetupFailureReport `json:"setup_failure_report"`
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++
	r.Sessions.Increment(le.SessionID)

	switch event := le.GetLogType().(type) {
	case *RunCommand:
		r.RunCommand.update(event)
	case *CommandExit:
		r.CommandExit.update(event)
	case *Builtin:
		r.Builtin.update(event)
	case *Assignment:
		r.Assignment.update(event)
	case *SetupFailure:
		r.SetupFailure.update(event)
	default:
		r.InvalidEntries.Increment(fmt.Sprintf("%T", event))
	}
}

type RunCommandReport struct {
	// Name of the resolved command
	ResolvedCommandPaths StrCounter `json:"resolved_command_names"`
	// Name of the command
	CommandNames StrCounter `json:"command_names"`
	// Deepest nesting level a command ran at.
	MaxLevel int `json:"max_level"`
}

func (r *RunCommandReport) update(rc *RunCommand) {
	r.ResolvedCommandPaths.Increment(rc.ResolvedCommandPath)
	if len(rc.Command) > 0 {
		r.CommandNames.Increment(rc.Command[0])
	}
	if rc.Level > r.MaxLevel {
		r.MaxLevel = rc.Level
	}
}

type CommandExitReport struct {
	// Statuses of normally exiting commands.
	Statuses StrCounter `json:"statuses"`
	// Signals that killed or stopped commands.
	Signals StrCounter `json:"signals,omitempty"`
	// Failing commands by name.
	Failures StrCounter `json:"failures,omitempty"`
}

func (r *CommandExitReport) update(ce *CommandExit) {
	switch {
	case ce.Signal != 0 && ce.Stopped:
		r.Signals.Increment(fmt.Sprintf("stopped:%d", ce.Signal))
	case ce.Signal != 0:
		r.Signals.Increment(fmt.Sprintf("killed:%d", ce.Signal))
	default:
		r.Statuses.Increment(fmt.Sprintf("%d", ce.Status))
	}

	if ce.Status != 0 && len(ce.Command) > 0 {
		r.Failures.Increment(ce.Command[0])
	}
}

type BuiltinReport struct {
	CommandNames StrCounter `json:"command_names"`
	Failures     StrCounter `json:"failures,omitempty"`
}

func (r *BuiltinReport) update(b *Builtin) {
	if len(b.Command) == 0 {
		return
	}
	r.CommandNames.Increment(b.Command[0])
	if b.Status != 0 {
		r.Failures.Increment(strings.Join(b.Command, " "))
	}
}

type AssignmentReport struct {
	Names StrCounter `json:"names"`
}

func (r *AssignmentReport) update(a *Assignment) {
	r.Names.Increment(a.Name)
}

type SetupFailureReport struct {
	Failures *PathCounter `json:"failures"`
}

func (r *SetupFailureReport) update(sf *SetupFailure) {
	if r.Failures == nil {
		r.Failures = NewPathCounter("stage", "error")
	}
	r.Failures.Increment(sf.Stage, sf.Error)
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns the number of times key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of value tuples seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Count returns the number of times the tuple was seen.
func (ctr *PathCounter) Count(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	var out []Count
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
