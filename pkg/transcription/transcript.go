// Package transcription turns a finished audio buffer into a speaker-labelled,
// time-ordered transcript.
package transcription

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Speaker string

const (
	SpeakerDoctor  Speaker = "Doctor"
	SpeakerPatient Speaker = "Patient"
	SpeakerUnknown Speaker = "Unknown"
)

// DefaultConfidence is used when a provider omits per-segment confidence.
const DefaultConfidence = 0.9

func ParseSpeaker(s string) Speaker {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "doctor", "clinician", "provider":
		return SpeakerDoctor
	case "patient":
		return SpeakerPatient
	default:
		return SpeakerUnknown
	}
}

type Segment struct {
	Id         string  `json:"id"`
	Speaker    Speaker `json:"speaker"`
	Text       string  `json:"text"`
	StartTime  float64 `json:"startTime"`
	EndTime    float64 `json:"endTime"`
	Confidence float64 `json:"confidence"`
}

// Transcript is ordered by StartTime. Producers are responsible for emitting
// segments in order; SortByStart exists for providers whose responses are not.
type Transcript []Segment

var (
	ErrEmptyTranscript = errors.New("transcript has no segments")
	ErrSegmentOrder    = errors.New("segments are not ordered by start time")
)

// Validate checks the per-segment invariants and the ordering.
func (t Transcript) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTranscript
	}
	seen := make(map[string]struct{}, len(t))
	for i, seg := range t {
		if seg.StartTime < 0 || seg.EndTime <= seg.StartTime {
			return fmt.Errorf("segment %q: invalid time range [%v, %v]", seg.Id, seg.StartTime, seg.EndTime)
		}
		if seg.Confidence < 0 || seg.Confidence > 1 {
			return fmt.Errorf("segment %q: confidence %v out of range", seg.Id, seg.Confidence)
		}
		if _, dup := seen[seg.Id]; dup {
			return fmt.Errorf("segment %q: duplicate id", seg.Id)
		}
		seen[seg.Id] = struct{}{}
		if i > 0 && seg.StartTime < t[i-1].StartTime {
			return ErrSegmentOrder
		}
	}
	return nil
}

// SortByStart orders segments and reassigns sequential ids.
func (t Transcript) SortByStart() Transcript {
	out := make(Transcript, len(t))
	copy(out, t)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})
	for i := range out {
		out[i].Id = SegmentID(i)
	}
	return out
}

// Lines renders the transcript as "{speaker}: {text}" lines.
func (t Transcript) Lines() string {
	var b strings.Builder
	for i, seg := range t {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(seg.Speaker))
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(seg.Text))
	}
	return b.String()
}

// TextBy returns the segment texts of one speaker, in order.
func (t Transcript) TextBy(speaker Speaker) []string {
	var out []string
	for _, seg := range t {
		if seg.Speaker == speaker {
			if text := strings.TrimSpace(seg.Text); text != "" {
				out = append(out, text)
			}
		}
	}
	return out
}

// Duration is the end offset of the last segment.
func (t Transcript) Duration() float64 {
	var end float64
	for _, seg := range t {
		if seg.EndTime > end {
			end = seg.EndTime
		}
	}
	return end
}

func SegmentID(i int) string {
	return fmt.Sprintf("seg-%d", i+1)
}
