package google

import (
	"context"
	"errors"
	"testing"
	"time"

	"convohealth-be/pkg/credential"
	"convohealth-be/pkg/transcription"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

type fakeRecognizer struct {
	resp   *speechpb.RecognizeResponse
	err    error
	req    *speechpb.RecognizeRequest
	closed bool
}

func (f *fakeRecognizer) Recognize(_ context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	f.req = req
	return f.resp, f.err
}

func (f *fakeRecognizer) Close() error {
	f.closed = true
	return nil
}

func word(text string, tag int32, start, end time.Duration) *speechpb.WordInfo {
	return &speechpb.WordInfo{
		Word:       text,
		SpeakerTag: tag,
		StartTime:  durationpb.New(start),
		EndTime:    durationpb.New(end),
		Confidence: 0.8,
	}
}

func newTestProvider(fake *fakeRecognizer) *Provider {
	p := New(credential.Static{credential.ProviderGoogleSpeech: {APIKey: "k"}}, Config{})
	p.dial = func(context.Context, credential.Credential) (recognizer, error) {
		return fake, nil
	}
	return p
}

func TestTranscribeGroupsWordsBySpeaker(t *testing.T) {
	fake := &fakeRecognizer{resp: &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "partial"}}},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{
				Words: []*speechpb.WordInfo{
					word("Any", 1, 0, 300*time.Millisecond),
					word("pain?", 1, 300*time.Millisecond, 800*time.Millisecond),
					word("Yes,", 2, time.Second, 1300*time.Millisecond),
					word("here.", 2, 1300*time.Millisecond, 1800*time.Millisecond),
				},
			}}},
		},
	}}

	got, err := newTestProvider(fake).Transcribe(context.Background(), []byte("opus"))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.NoError(t, got.Validate())
	assert.Equal(t, transcription.SpeakerDoctor, got[0].Speaker)
	assert.Equal(t, "Any pain?", got[0].Text)
	assert.InDelta(t, 0.8, got[0].Confidence, 1e-6)
	assert.Equal(t, transcription.SpeakerPatient, got[1].Speaker)
	assert.Equal(t, "Yes, here.", got[1].Text)
	assert.InDelta(t, 1.8, got[1].EndTime, 1e-9)

	assert.True(t, fake.closed)
	assert.True(t, fake.req.GetConfig().GetDiarizationConfig().GetEnableSpeakerDiarization())
	assert.Equal(t, []byte("opus"), fake.req.GetAudio().GetContent())
}

func TestTranscribeReportsProviderErrors(t *testing.T) {
	fake := &fakeRecognizer{err: errors.New("quota exceeded")}
	_, err := newTestProvider(fake).Transcribe(context.Background(), []byte("opus"))
	assert.ErrorIs(t, err, transcription.ErrProviderError)

	fake = &fakeRecognizer{resp: &speechpb.RecognizeResponse{}}
	_, err = newTestProvider(fake).Transcribe(context.Background(), []byte("opus"))
	assert.ErrorIs(t, err, transcription.ErrBadResponse)
}

func TestTranscribeWithoutCredential(t *testing.T) {
	_, err := New(credential.Static{}, Config{}).Transcribe(context.Background(), []byte("opus"))
	assert.ErrorIs(t, err, transcription.ErrNoCredential)
}
