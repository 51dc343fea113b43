package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/igraph100/DW-Spectrum/internal/decode"
)

// Task field names known to the client. Anything else is carried verbatim.
const (
	TaskDayOfWeek     = "dayOfWeek"
	TaskRecordingType = "recordingType"
	TaskMetadataTypes = "metadataTypes"
	TaskFPS           = "fps"
	TaskBitrateKbps   = "bitrateKbps"
	TaskStreamQuality = "streamQuality"
	TaskStartTime     = "startTime"
	TaskEndTime       = "endTime"
)

// Schedule is a camera's weekly recording configuration.
type Schedule struct {
	IsEnabled bool            `json:"isEnabled"`
	Tasks     []RecordingTask `json:"tasks,omitempty"`
}

// UnmarshalJSON drops task entries that are not JSON objects. isEnabled
// accepts any boolean spelling; anything else reads as disabled.
func (s *Schedule) UnmarshalJSON(data []byte) error {
	var raw struct {
		IsEnabled any             `json:"isEnabled"`
		Tasks     json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.IsEnabled, _ = decode.ToBool(raw.IsEnabled)
	s.Tasks = nil

	var tasks []json.RawMessage
	if err := json.Unmarshal(raw.Tasks, &tasks); err != nil {
		tasks = nil
	}
	for _, t := range tasks {
		t = bytes.TrimSpace(t)
		if len(t) == 0 || t[0] != '{' {
			continue
		}
		var task RecordingTask
		if err := json.Unmarshal(t, &task); err != nil {
			return err
		}
		s.Tasks = append(s.Tasks, task)
	}
	return nil
}

// RecordingTask is one per-day entry of a Schedule. Values are kept as raw
// JSON so fields the client does not know about round-trip byte for byte.
type RecordingTask map[string]json.RawMessage

// Has reports whether the field is present.
func (t RecordingTask) Has(key string) bool {
	_, ok := t[key]
	return ok
}

// String returns a string field, or the raw JSON text for non-string values.
func (t RecordingTask) String(key string) string {
	raw, ok := t[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

// Set stores v under key.
func (t RecordingTask) Set(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	t[key] = b
	return nil
}

// SetDefault stores v under key only when the key is absent.
func (t RecordingTask) SetDefault(key string, v any) error {
	if t.Has(key) {
		return nil
	}
	return t.Set(key, v)
}

// Clone returns a shallow copy; raw values are never mutated in place.
func (t RecordingTask) Clone() RecordingTask {
	nt := make(RecordingTask, len(t))
	for k, v := range t {
		nt[k] = v
	}
	return nt
}

// ScheduleEnabledPatch is the PATCH /devices/{id} body toggling a schedule
type ScheduleEnabledPatch struct {
	Schedule struct {
		IsEnabled bool `json:"isEnabled"`
	} `json:"schedule"`
}

// SchedulePatch is the PATCH /devices/{id} body replacing all tasks
type SchedulePatch struct {
	Schedule Schedule `json:"schedule"`
}
