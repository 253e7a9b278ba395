package timerange

import (
	"fmt"
	"time"
)

// Custom marks an explicit start/end window.
const Custom = "custom"

// DefaultPreset is used when no time option is given.
const DefaultPreset = "last15Minutes"

var presets = map[string]time.Duration{
	"last5Minutes":  5 * time.Minute,
	"last15Minutes": 15 * time.Minute,
	"last30Minutes": 30 * time.Minute,
	"last1Hour":     time.Hour,
	"last3Hours":    3 * time.Hour,
	"last6Hours":    6 * time.Hour,
	"last12Hours":   12 * time.Hour,
	"last1Day":      24 * time.Hour,
	"last2Days":     48 * time.Hour,
	"last7Days":     7 * 24 * time.Hour,
	"last30Days":    30 * 24 * time.Hour,
}

// Range is a time window: a relative preset or an explicit custom window.
type Range struct {
	preset string
	start  int64
	end    int64
}

// New validates and creates a Range. start and end (epoch seconds) are used only for Custom.
func New(preset string, start, end int64) (Range, error) {
	if preset == "" {
		preset = DefaultPreset
	}
	if preset == Custom {
		if start <= 0 || end <= 0 {
			return Range{}, fmt.Errorf("custom time range requires timeStart and timeEnd")
		}
		if start > end {
			return Range{}, fmt.Errorf("timeStart %d is after timeEnd %d", start, end)
		}
		return Range{preset: Custom, start: start, end: end}, nil
	}
	if _, ok := presets[preset]; !ok {
		return Range{}, fmt.Errorf("unknown time preset %q", preset)
	}
	return Range{preset: preset}, nil
}

// Preset returns the preset name or Custom.
func (r Range) Preset() string {
	if r.preset == "" {
		return DefaultPreset
	}
	return r.preset
}

// IsCustom reports whether the window is explicit.
func (r Range) IsCustom() bool { return r.preset == Custom }

// Resolve returns the window as epoch seconds relative to now.
func (r Range) Resolve(now time.Time) (start, end int64) {
	if r.IsCustom() {
		return r.start, r.end
	}
	end = now.Unix()
	return end - int64(presets[r.Preset()]/time.Second), end
}

// Matches reports whether start..end is a window this range could have
// pinned. A relative preset matches any window of its length.
func (r Range) Matches(start, end int64) bool {
	if start <= 0 || end <= 0 {
		return false
	}
	if r.IsCustom() {
		return start == r.start && end == r.end
	}
	return end-start == int64(presets[r.Preset()]/time.Second)
}

// Presets returns the known relative preset names.
func Presets() []string {
	return []string{
		"last5Minutes", "last15Minutes", "last30Minutes", "last1Hour", "last3Hours",
		"last6Hours", "last12Hours", "last1Day", "last2Days", "last7Days", "last30Days",
	}
}
