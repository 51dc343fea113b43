// Package schedule derives replacement weekly recording schedules.
package schedule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/igraph100/DW-Spectrum/pkg/models"
)

// Mode is a named recordingType/metadataTypes combination applied to every task.
type Mode string

const (
	ModeAlways    Mode = "always"
	ModeMotion    Mode = "motion"
	ModeMotionLow Mode = "motion_low"
	ModeUnknown   Mode = "unknown"
)

var (
	ErrUnknownMode       = errors.New("unknown recording mode")
	ErrTaskCountMismatch = errors.New("rewritten schedule lost tasks")
)

// Pair is the pair of task fields a Mode controls.
type Pair struct {
	RecordingType string
	MetadataTypes string
}

var pairs = map[Mode]Pair{
	ModeAlways:    {RecordingType: "always", MetadataTypes: "none"},
	ModeMotion:    {RecordingType: "metadataOnly", MetadataTypes: "motion"},
	ModeMotionLow: {RecordingType: "metadataAndLowQuality", MetadataTypes: "motion"},
}

// Modes lists the settable modes.
var Modes = []Mode{ModeAlways, ModeMotionLow, ModeMotion}

// Label is the human readable name of a settable mode.
func (m Mode) Label() string {
	switch m {
	case ModeAlways:
		return "Always Record"
	case ModeMotion:
		return "Motion Only"
	case ModeMotionLow:
		return "Motion + Low Res"
	}
	return string(m)
}

// Pair returns the task fields for a settable mode.
func (m Mode) Pair() (Pair, bool) {
	p, ok := pairs[m]
	return p, ok
}

// Valid reports whether m can be applied to a camera.
func (m Mode) Valid() bool {
	_, ok := pairs[m]
	return ok
}

// ParseMode accepts the settable mode names, case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// Task defaults used when a schedule is synthesized from scratch.
const (
	defaultBitrateKbps   = 0
	defaultFPS           = 24
	defaultStreamQuality = "highest"
	dayStart             = 0
	dayEnd               = 86400
)

// DefaultTasks returns a full week of always-record tasks, one per day 1..7.
func DefaultTasks() []models.RecordingTask {
	tasks := make([]models.RecordingTask, 0, 7)
	for dow := 1; dow <= 7; dow++ {
		t := models.RecordingTask{}
		_ = t.Set(models.TaskBitrateKbps, defaultBitrateKbps)
		_ = t.Set(models.TaskDayOfWeek, dow)
		_ = t.Set(models.TaskEndTime, dayEnd)
		_ = t.Set(models.TaskFPS, defaultFPS)
		_ = t.Set(models.TaskMetadataTypes, pairs[ModeAlways].MetadataTypes)
		_ = t.Set(models.TaskRecordingType, pairs[ModeAlways].RecordingType)
		_ = t.Set(models.TaskStartTime, dayStart)
		_ = t.Set(models.TaskStreamQuality, defaultStreamQuality)
		tasks = append(tasks, t)
	}
	return tasks
}

// CloneTask copies t and fills the optional fields that are absent.
// Present fields, known or not, are left untouched.
func CloneTask(t models.RecordingTask) models.RecordingTask {
	nt := t.Clone()
	_ = nt.SetDefault(models.TaskMetadataTypes, "none")
	_ = nt.SetDefault(models.TaskFPS, 0)
	_ = nt.SetDefault(models.TaskBitrateKbps, 0)
	_ = nt.SetDefault(models.TaskStreamQuality, defaultStreamQuality)
	_ = nt.SetDefault(models.TaskStartTime, dayStart)
	_ = nt.SetDefault(models.TaskEndTime, dayEnd)
	_ = nt.SetDefault(models.TaskDayOfWeek, 1)
	return nt
}

// Rewrite returns the task list to submit for mode. An absent or empty
// schedule is replaced by DefaultTasks before rewriting.
func Rewrite(current *models.Schedule, mode Mode) ([]models.RecordingTask, error) {
	pair, ok := mode.Pair()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	var tasks []models.RecordingTask
	if current != nil {
		tasks = current.Tasks
	}
	if len(tasks) == 0 {
		tasks = DefaultTasks()
	}

	out := make([]models.RecordingTask, 0, len(tasks))
	for _, t := range tasks {
		nt := CloneTask(t)
		if err := nt.Set(models.TaskRecordingType, pair.RecordingType); err != nil {
			return nil, err
		}
		if err := nt.Set(models.TaskMetadataTypes, pair.MetadataTypes); err != nil {
			return nil, err
		}
		out = append(out, nt)
	}

	if len(out) != len(tasks) {
		return nil, fmt.Errorf("%w: %d in, %d out", ErrTaskCountMismatch, len(tasks), len(out))
	}
	return out, nil
}

// Detect derives the mode of a schedule. ok is false when there are no tasks.
func Detect(s *models.Schedule) (mode Mode, ok bool) {
	if s == nil || len(s.Tasks) == 0 {
		return "", false
	}

	recTypes := map[string]struct{}{}
	metaTypes := map[string]struct{}{}
	for _, t := range s.Tasks {
		recTypes[t.String(models.TaskRecordingType)] = struct{}{}
		metaTypes[t.String(models.TaskMetadataTypes)] = struct{}{}
	}
	if len(recTypes) != 1 || len(metaTypes) != 1 {
		return ModeUnknown, true
	}

	var got Pair
	for k := range recTypes {
		got.RecordingType = k
	}
	for k := range metaTypes {
		got.MetadataTypes = k
	}
	for _, m := range Modes {
		if pairs[m] == got {
			return m, true
		}
	}
	return ModeUnknown, true
}
