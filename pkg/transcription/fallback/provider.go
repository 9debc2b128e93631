// Package fallback provides the offline transcript used when no live
// speech-to-text provider can serve a recording.
package fallback

import (
	"context"

	"convohealth-be/pkg/transcription"
)

const Name = "fallback"

type line struct {
	speaker transcription.Speaker
	text    string
	seconds float64
}

// script is illustrative and fixed so the output is identical on every call.
var script = []line{
	{transcription.SpeakerDoctor, "Good morning. What brings you in today?", 4},
	{transcription.SpeakerPatient, "I've had a headache and a sore throat for about three days.", 5},
	{transcription.SpeakerDoctor, "Have you had any fever or cough along with that?", 4},
	{transcription.SpeakerPatient, "A mild fever last night, and I've been feeling tired.", 5},
	{transcription.SpeakerDoctor, "Any allergies to medications?", 3},
	{transcription.SpeakerPatient, "No, none that I know of.", 3},
	{transcription.SpeakerDoctor, "Let's get a rapid strep test. Rest, drink plenty of fluids, and take acetaminophen as needed for the fever.", 7},
	{transcription.SpeakerPatient, "Okay, thank you.", 2},
}

type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return Name
}

// Transcribe ignores the audio and never fails.
func (p *Provider) Transcribe(_ context.Context, _ []byte) (transcription.Transcript, error) {
	return Transcript(), nil
}

// Transcript returns a fresh copy of the fixed transcript.
func Transcript() transcription.Transcript {
	out := make(transcription.Transcript, 0, len(script))
	var offset float64
	for i, l := range script {
		out = append(out, transcription.Segment{
			Id:         transcription.SegmentID(i),
			Speaker:    l.speaker,
			Text:       l.text,
			StartTime:  offset,
			EndTime:    offset + l.seconds,
			Confidence: transcription.DefaultConfidence,
		})
		offset += l.seconds + 0.5
	}
	return out
}
