// Package core provides filtering, sorting, and lookup logic for sound
// state snapshots.
package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/fademix/internal/mixer"
)

// FilterOp represents a comparison operator.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="  // Exact match
	FilterOpNotEqual  FilterOp = "!=" // Not equal
	FilterOpContains  FilterOp = "~"  // Contains substring
	FilterOpRegex     FilterOp = "~=" // Regex match
	FilterOpGreater   FilterOp = ">"  // Greater than
	FilterOpLess      FilterOp = "<"  // Less than
	FilterOpGreaterEq FilterOp = ">=" // Greater than or equal
	FilterOpLessEq    FilterOp = "<=" // Less than or equal
)

// Sound states as matched by the state field.
const (
	StatePlaying = "playing"
	StatePaused  = "paused"
	StateStopped = "stopped"
)

// FilterCondition represents a single filter condition.
type FilterCondition struct {
	Field    string   // Field name: key, state, loop, fading, volume, output, fade, left, duration
	Operator FilterOp // Comparison operator
	Value    string   // Value to compare against

	regex    *regexp.Regexp
	floatVal float64
	durVal   time.Duration
	boolVal  bool
}

// FilterExpr represents a compound filter expression.
// Multiple conditions are ANDed together.
type FilterExpr struct {
	Conditions []FilterCondition
}

// FilterOptions specifies criteria for filtering sounds.
type FilterOptions struct {
	ActiveOnly bool // Only playing or paused sounds
	FadingOnly bool // Only sounds with a running fade effect
	Limit      int  // Maximum results (0=unlimited)
}

// Filter filters sounds based on the provided options.
func Filter(sounds []mixer.SoundState, opts FilterOptions) []mixer.SoundState {
	result := make([]mixer.SoundState, 0, len(sounds))

	for _, s := range sounds {
		if opts.ActiveOnly && !s.Playing && !s.Paused {
			continue
		}
		if opts.FadingOnly && !s.Fading {
			continue
		}
		result = append(result, s)
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result
}

// State returns the state name of s: playing, paused or stopped.
func State(s *mixer.SoundState) string {
	switch {
	case s.Paused:
		return StatePaused
	case s.Playing:
		return StatePlaying
	default:
		return StateStopped
	}
}

// ParseDuration parses a duration string. Bare numbers are seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}
	return d, nil
}

// ParseFilter parses a filter expression string into a FilterExpr.
// Format: "field=value,field2~value2,field3>value3"
// Multiple conditions are comma-separated and ANDed together.
//
// Supported fields: key, state, loop, fading, volume, output, fade, left, duration
// Supported operators: = (equal), != (not equal), ~ (contains), ~= (regex), >, <, >=, <=
//
// Examples:
//   - "state=playing" - audible sounds
//   - "key~rain" - key contains "rain"
//   - "output<0.5" - output level below half
//   - "loop=true,fading=true" - looping sounds that are fading
//   - "left<=2s" - sounds with at most two seconds left
func ParseFilter(expr string) (*FilterExpr, error) {
	if expr == "" {
		return &FilterExpr{}, nil
	}

	filter := &FilterExpr{
		Conditions: make([]FilterCondition, 0),
	}

	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		cond, err := parseCondition(part)
		if err != nil {
			return nil, err
		}
		filter.Conditions = append(filter.Conditions, cond)
	}

	return filter, nil
}

// parseCondition parses a single condition like "key=rain" or "output>0.2"
func parseCondition(s string) (FilterCondition, error) {
	// Longest operators first
	operators := []FilterOp{
		FilterOpNotEqual,
		FilterOpGreaterEq,
		FilterOpLessEq,
		FilterOpRegex,
		FilterOpEqual,
		FilterOpContains,
		FilterOpGreater,
		FilterOpLess,
	}

	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx > 0 {
			cond := FilterCondition{
				Field:    strings.ToLower(strings.TrimSpace(s[:idx])),
				Operator: op,
				Value:    strings.TrimSpace(s[idx+len(op):]),
			}

			if err := cond.init(); err != nil {
				return FilterCondition{}, err
			}

			return cond, nil
		}
	}

	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
}

// init pre-parses and validates the condition value.
func (c *FilterCondition) init() error {
	switch c.Field {
	case "key", "name":
		c.Field = "key"
	case "state", "status":
		c.Field = "state"
		switch strings.ToLower(c.Value) {
		case StatePlaying, StatePaused, StateStopped:
			c.Value = strings.ToLower(c.Value)
		default:
			return fmt.Errorf("invalid state: %s (use playing, paused, or stopped)", c.Value)
		}
	case "loop", "looping":
		c.Field = "loop"
		c.boolVal = parseBool(c.Value)
	case "fading", "fx":
		c.Field = "fading"
		c.boolVal = parseBool(c.Value)
	case "volume", "vol":
		c.Field = "volume"
		return c.initFloat()
	case "output", "out":
		c.Field = "output"
		return c.initFloat()
	case "fade", "fade_scale":
		c.Field = "fade"
		return c.initFloat()
	case "left", "remaining":
		c.Field = "left"
		return c.initDuration()
	case "duration", "length":
		c.Field = "duration"
		return c.initDuration()
	default:
		return fmt.Errorf("unknown filter field: %s", c.Field)
	}

	if c.Operator == FilterOpRegex {
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
		c.regex = re
	}

	return nil
}

func (c *FilterCondition) initFloat() error {
	v, err := strconv.ParseFloat(c.Value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s value: %s", c.Field, c.Value)
	}
	c.floatVal = v
	return nil
}

func (c *FilterCondition) initDuration() error {
	d, err := ParseDuration(c.Value)
	if err != nil {
		return fmt.Errorf("invalid %s value: %w", c.Field, err)
	}
	c.durVal = d
	return nil
}

// parseBool parses various boolean representations.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y", "t":
		return true
	default:
		return false
	}
}

// Match tests if a sound matches the filter expression.
// All conditions must match (AND logic).
func (f *FilterExpr) Match(s mixer.SoundState) bool {
	for _, cond := range f.Conditions {
		if !cond.Match(s) {
			return false
		}
	}
	return true
}

// Match tests if a sound matches this single condition.
func (c *FilterCondition) Match(s mixer.SoundState) bool {
	switch c.Field {
	case "key":
		return c.matchString(s.Key)
	case "state":
		return c.matchString(State(&s))
	case "loop":
		return c.matchBool(s.Loop)
	case "fading":
		return c.matchBool(s.Fading)
	case "volume":
		return c.matchFloat(s.Volume)
	case "output":
		return c.matchFloat(s.OutputVolume)
	case "fade":
		return c.matchFloat(s.FadeScale)
	case "left":
		return c.matchFloat(float64(s.Left))
	case "duration":
		return c.matchFloat(float64(s.Duration))
	default:
		return false
	}
}

// matchString matches a string field.
func (c *FilterCondition) matchString(fieldValue string) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.Value
	case FilterOpNotEqual:
		return fieldValue != c.Value
	case FilterOpContains:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(c.Value))
	case FilterOpRegex:
		return c.regex != nil && c.regex.MatchString(fieldValue)
	default:
		return false
	}
}

// matchFloat matches a numeric field. Duration fields compare in
// nanoseconds.
func (c *FilterCondition) matchFloat(fieldValue float64) bool {
	condValue := c.floatVal
	if c.Field == "left" || c.Field == "duration" {
		condValue = float64(c.durVal)
	}

	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == condValue
	case FilterOpNotEqual:
		return fieldValue != condValue
	case FilterOpGreater:
		return fieldValue > condValue
	case FilterOpLess:
		return fieldValue < condValue
	case FilterOpGreaterEq:
		return fieldValue >= condValue
	case FilterOpLessEq:
		return fieldValue <= condValue
	default:
		return false
	}
}

// matchBool matches a boolean field.
func (c *FilterCondition) matchBool(fieldValue bool) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.boolVal
	case FilterOpNotEqual:
		return fieldValue != c.boolVal
	default:
		return false
	}
}

// FilterWithExpr filters sounds using a filter expression.
func FilterWithExpr(sounds []mixer.SoundState, expr *FilterExpr) []mixer.SoundState {
	if expr == nil || len(expr.Conditions) == 0 {
		return sounds
	}

	result := make([]mixer.SoundState, 0, len(sounds))
	for _, s := range sounds {
		if expr.Match(s) {
			result = append(result, s)
		}
	}
	return result
}
