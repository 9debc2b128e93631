// Package preferences stores small per-owner values that outlive a single
// recording: trial counters and UI flags. Values are strings at rest; the
// Preferences type adds typed accessors.
package preferences

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	KeyTrialStart   = "trial_start"
	KeyMinutesUsed  = "recording_minutes_used"
	KeyTutorialSeen = "tutorial_seen"
)

// Backend is raw key/value storage. Get reports ok=false for a missing key.
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Preferences is a Backend view scoped to one owner.
type Preferences struct {
	backend Backend
	owner   string
}

func New(backend Backend, owner string) *Preferences {
	return &Preferences{backend: backend, owner: owner}
}

func (p *Preferences) Owner() string {
	return p.owner
}

func (p *Preferences) key(name string) string {
	return "prefs:" + p.owner + ":" + name
}

func (p *Preferences) GetString(ctx context.Context, name string) (string, bool, error) {
	return p.backend.Get(ctx, p.key(name))
}

func (p *Preferences) SetString(ctx context.Context, name, value string) error {
	return p.backend.Set(ctx, p.key(name), value)
}

func (p *Preferences) GetTime(ctx context.Context, name string) (time.Time, bool, error) {
	raw, ok, err := p.GetString(ctx, name)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("preference %s: %w", name, err)
	}
	return t, true, nil
}

func (p *Preferences) SetTime(ctx context.Context, name string, t time.Time) error {
	return p.SetString(ctx, name, t.UTC().Format(time.RFC3339Nano))
}

func (p *Preferences) GetFloat(ctx context.Context, name string) (float64, bool, error) {
	raw, ok, err := p.GetString(ctx, name)
	if err != nil || !ok {
		return 0, false, err
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("preference %s: %w", name, err)
	}
	return f, true, nil
}

func (p *Preferences) SetFloat(ctx context.Context, name string, f float64) error {
	return p.SetString(ctx, name, strconv.FormatFloat(f, 'f', -1, 64))
}

func (p *Preferences) GetBool(ctx context.Context, name string) (bool, error) {
	raw, ok, err := p.GetString(ctx, name)
	if err != nil || !ok {
		return false, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("preference %s: %w", name, err)
	}
	return b, nil
}

func (p *Preferences) SetBool(ctx context.Context, name string, b bool) error {
	return p.SetString(ctx, name, strconv.FormatBool(b))
}
