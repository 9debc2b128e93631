// Package usage meters recorded minutes against the trial allowance.
// Notices are advisory; nothing here blocks a recording.
package usage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"convohealth-be/pkg/preferences"
)

const (
	TrialLimitMinutes = 60
	TrialDays         = 15
	WarnRatio         = 0.8

	// MaxSessionMinutes bounds a single recorded session. Larger values are
	// rejected on write and rewritten by Repair.
	MaxSessionMinutes = 60

	repairMinMinutes = 2
	repairMaxMinutes = 10
)

var ErrInvalidDuration = errors.New("session duration out of range")

type Level string

const (
	LevelOK       Level = "ok"
	LevelWarning  Level = "warning"
	LevelExceeded Level = "exceeded"
)

type Limits struct {
	Minutes   float64
	Days      int
	WarnRatio float64
}

func DefaultLimits() Limits {
	return Limits{Minutes: TrialLimitMinutes, Days: TrialDays, WarnRatio: WarnRatio}
}

// Notice is the UsageLimitExceeded signal. Crossed is set only by the
// TrackUsage call that moved the total over a threshold.
type Notice struct {
	Level         Level   `json:"level"`
	Message       string  `json:"message"`
	MinutesUsed   float64 `json:"minutesUsed"`
	LimitMinutes  float64 `json:"limitMinutes"`
	DaysRemaining int     `json:"daysRemaining"`
	Crossed       bool    `json:"crossed"`
}

type Status struct {
	TrialStart     time.Time `json:"trialStart"`
	MinutesUsed    float64   `json:"minutesUsed"`
	RawMinutesUsed float64   `json:"rawMinutesUsed"`
	LimitMinutes   float64   `json:"limitMinutes"`
	DaysRemaining  int       `json:"daysRemaining"`
	Expired        bool      `json:"expired"`
	Notice         Notice    `json:"notice"`
}

// SessionDuration is one persisted recording duration in minutes.
type SessionDuration struct {
	ID      string
	Minutes float64
}

// DurationStore persists per-session durations for one owner.
type DurationStore interface {
	Record(ctx context.Context, owner string, minutes float64) error
	List(ctx context.Context, owner string) ([]SessionDuration, error)
	Update(ctx context.Context, owner, id string, minutes float64) error
}

type RepairReport struct {
	Scanned       int     `json:"scanned"`
	Repaired      int     `json:"repaired"`
	PreviousTotal float64 `json:"previousTotal"`
	Total         float64 `json:"total"`
}

type Option func(*Meter)

func WithClock(clock func() time.Time) Option {
	return func(m *Meter) { m.clock = clock }
}

func WithLimits(l Limits) Option {
	return func(m *Meter) { m.limits = l }
}

// Meter tracks one owner's trial usage.
type Meter struct {
	prefs  *preferences.Preferences
	store  DurationStore
	limits Limits
	clock  func() time.Time
}

func NewMeter(prefs *preferences.Preferences, store DurationStore, opts ...Option) *Meter {
	m := &Meter{prefs: prefs, store: store, limits: DefaultLimits(), clock: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TrialStart returns the stored trial start, initializing it to now on first
// use.
func (m *Meter) TrialStart(ctx context.Context) (time.Time, error) {
	start, ok, err := m.prefs.GetTime(ctx, preferences.KeyTrialStart)
	if err != nil {
		return time.Time{}, err
	}
	if ok {
		return start, nil
	}
	start = m.clock()
	if err := m.prefs.SetTime(ctx, preferences.KeyTrialStart, start); err != nil {
		return time.Time{}, err
	}
	return start, nil
}

// TrialDaysRemaining is floor(days - elapsedDays), never below zero.
func (m *Meter) TrialDaysRemaining(ctx context.Context) (int, error) {
	start, err := m.TrialStart(ctx)
	if err != nil {
		return 0, err
	}
	return m.daysRemaining(start), nil
}

func (m *Meter) daysRemaining(start time.Time) int {
	elapsed := m.clock().Sub(start).Hours() / 24
	remaining := int(math.Floor(float64(m.limits.Days) - elapsed))
	if remaining < 0 {
		return 0
	}
	if remaining > m.limits.Days {
		return m.limits.Days
	}
	return remaining
}

func (m *Meter) minutesUsed(ctx context.Context) (float64, error) {
	used, _, err := m.prefs.GetFloat(ctx, preferences.KeyMinutesUsed)
	return used, err
}

func (m *Meter) IsTrialExpired(ctx context.Context) (bool, error) {
	s, err := m.Status(ctx)
	if err != nil {
		return false, err
	}
	return s.Expired, nil
}

// Status reports usage with MinutesUsed clamped to [0, limit]; the stored
// value is kept in RawMinutesUsed.
func (m *Meter) Status(ctx context.Context) (Status, error) {
	start, err := m.TrialStart(ctx)
	if err != nil {
		return Status{}, err
	}
	raw, err := m.minutesUsed(ctx)
	if err != nil {
		return Status{}, err
	}

	s := Status{
		TrialStart:     start,
		MinutesUsed:    clamp(raw, 0, m.limits.Minutes),
		RawMinutesUsed: raw,
		LimitMinutes:   m.limits.Minutes,
		DaysRemaining:  m.daysRemaining(start),
	}
	s.Expired = s.DaysRemaining == 0 || raw >= m.limits.Minutes
	s.Notice = m.notice(raw, s.DaysRemaining)
	return s, nil
}

// CheckAllowance is the advisory read made before a recording starts.
func (m *Meter) CheckAllowance(ctx context.Context) (Notice, error) {
	s, err := m.Status(ctx)
	if err != nil {
		return Notice{}, err
	}
	return s.Notice, nil
}

// TrackUsage records one finished session and adds it to the running total.
func (m *Meter) TrackUsage(ctx context.Context, minutes float64) (Notice, error) {
	if math.IsNaN(minutes) || minutes < 0 || minutes > MaxSessionMinutes {
		return Notice{}, fmt.Errorf("%w: %v minutes", ErrInvalidDuration, minutes)
	}

	start, err := m.TrialStart(ctx)
	if err != nil {
		return Notice{}, err
	}
	before, err := m.minutesUsed(ctx)
	if err != nil {
		return Notice{}, err
	}

	if err := m.store.Record(ctx, m.prefs.Owner(), minutes); err != nil {
		return Notice{}, fmt.Errorf("record usage: %w", err)
	}
	after := before + minutes
	if err := m.prefs.SetFloat(ctx, preferences.KeyMinutesUsed, after); err != nil {
		return Notice{}, err
	}

	n := m.notice(after, m.daysRemaining(start))
	n.Crossed = m.level(after) != LevelOK && m.level(after) != m.level(before)
	return n, nil
}

// Repair rewrites implausible session durations (over MaxSessionMinutes) to
// value/60 bounded to [2, 10] minutes, then recomputes the running total from
// the stored rows.
func (m *Meter) Repair(ctx context.Context) (RepairReport, error) {
	previous, err := m.minutesUsed(ctx)
	if err != nil {
		return RepairReport{}, err
	}
	rows, err := m.store.List(ctx, m.prefs.Owner())
	if err != nil {
		return RepairReport{}, fmt.Errorf("list usage: %w", err)
	}

	report := RepairReport{Scanned: len(rows), PreviousTotal: previous}
	for _, row := range rows {
		minutes := row.Minutes
		if minutes > MaxSessionMinutes || math.IsNaN(minutes) {
			minutes = RepairedMinutes(minutes)
			if err := m.store.Update(ctx, m.prefs.Owner(), row.ID, minutes); err != nil {
				return report, fmt.Errorf("update usage %s: %w", row.ID, err)
			}
			report.Repaired++
		}
		if minutes > 0 {
			report.Total += minutes
		}
	}

	if err := m.prefs.SetFloat(ctx, preferences.KeyMinutesUsed, report.Total); err != nil {
		return report, err
	}
	return report, nil
}

// RepairedMinutes treats an implausible value as seconds mistakenly stored as
// minutes and bounds the result.
func RepairedMinutes(value float64) float64 {
	if math.IsNaN(value) {
		return repairMinMinutes
	}
	return clamp(value/60, repairMinMinutes, repairMaxMinutes)
}

func (m *Meter) level(used float64) Level {
	switch {
	case used >= m.limits.Minutes:
		return LevelExceeded
	case used >= m.limits.Minutes*m.limits.WarnRatio:
		return LevelWarning
	default:
		return LevelOK
	}
}

func (m *Meter) notice(used float64, daysRemaining int) Notice {
	n := Notice{
		Level:         m.level(used),
		MinutesUsed:   clamp(used, 0, m.limits.Minutes),
		LimitMinutes:  m.limits.Minutes,
		DaysRemaining: daysRemaining,
	}
	if daysRemaining == 0 {
		n.Level = LevelExceeded
	}

	switch {
	case daysRemaining == 0:
		n.Message = "Your free trial has ended. Upgrade to keep recording."
	case n.Level == LevelExceeded:
		n.Message = fmt.Sprintf("You have used all %.0f trial minutes. Upgrade to keep recording.", m.limits.Minutes)
	case n.Level == LevelWarning:
		n.Message = fmt.Sprintf("You have used %.0f of %.0f trial minutes.", n.MinutesUsed, m.limits.Minutes)
	default:
		n.Message = fmt.Sprintf("%.0f trial minutes remaining.", m.limits.Minutes-n.MinutesUsed)
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
