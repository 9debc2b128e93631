// Package google transcribes recordings with Google Cloud Speech-to-Text,
// using its speaker diarization to label doctor and patient turns.
package google

import (
	"context"
	"fmt"
	"strings"

	"convohealth-be/pkg/credential"
	"convohealth-be/pkg/transcription"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

const Name = "google_speech"

type Config struct {
	LanguageCode    string
	SampleRateHertz int32
	Encoding        speechpb.RecognitionConfig_AudioEncoding
	SpeakerCount    int32
	Mapping         transcription.SpeakerMapping
}

type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	Close() error
}

type dialFunc func(ctx context.Context, cred credential.Credential) (recognizer, error)

type Provider struct {
	credentials credential.Lookup
	cfg         Config
	dial        dialFunc
}

var _ transcription.Transcriber = (*Provider)(nil)

func New(credentials credential.Lookup, cfg Config) *Provider {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.Encoding == speechpb.RecognitionConfig_ENCODING_UNSPECIFIED {
		cfg.Encoding = speechpb.RecognitionConfig_WEBM_OPUS
	}
	if cfg.SampleRateHertz == 0 {
		cfg.SampleRateHertz = 48000
	}
	if cfg.SpeakerCount == 0 {
		cfg.SpeakerCount = 2
	}
	if cfg.Mapping.Even == "" && cfg.Mapping.Odd == "" {
		cfg.Mapping = transcription.DefaultSpeakerMapping()
	}
	return &Provider{credentials: credentials, cfg: cfg, dial: dialSpeech}
}

func (p *Provider) Name() string {
	return Name
}

func (p *Provider) Transcribe(ctx context.Context, audio []byte) (transcription.Transcript, error) {
	if len(audio) == 0 {
		return nil, transcription.NewError(Name, transcription.ErrNoAudio)
	}

	cred, err := p.credentials.Active(ctx, credential.ProviderGoogleSpeech)
	if err != nil {
		return nil, transcription.NewError(Name, fmt.Errorf("%w: %v", transcription.ErrNoCredential, err))
	}

	client, err := p.dial(ctx, cred)
	if err != nil {
		return nil, transcription.NewError(Name, fmt.Errorf("dial: %w", err))
	}
	defer client.Close()

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              p.cfg.Encoding,
			SampleRateHertz:       p.cfg.SampleRateHertz,
			LanguageCode:          p.cfg.LanguageCode,
			EnableWordTimeOffsets: true,
			EnableWordConfidence:  true,
			DiarizationConfig: &speechpb.SpeakerDiarizationConfig{
				EnableSpeakerDiarization: true,
				MinSpeakerCount:          p.cfg.SpeakerCount,
				MaxSpeakerCount:          p.cfg.SpeakerCount,
			},
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return nil, transcription.NewError(Name, fmt.Errorf("%w: %v", transcription.ErrProviderError, err))
	}

	transcript := p.segments(resp)
	if len(transcript) == 0 {
		return nil, transcription.NewError(Name, fmt.Errorf("%w: no recognized words", transcription.ErrBadResponse))
	}
	return transcript, nil
}

// segments groups consecutive words by speaker tag. With diarization enabled
// the final result carries every word of the recording tagged with a speaker,
// so only that result is read.
func (p *Provider) segments(resp *speechpb.RecognizeResponse) transcription.Transcript {
	results := resp.GetResults()
	if len(results) == 0 {
		return nil
	}
	alts := results[len(results)-1].GetAlternatives()
	if len(alts) == 0 {
		return nil
	}

	var (
		out     transcription.Transcript
		current *transcription.Segment
		words   []string
		confSum float64
		confN   int
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.Join(words, " ")
		if confN > 0 {
			current.Confidence = confSum / float64(confN)
		}
		if current.EndTime <= current.StartTime {
			current.EndTime = current.StartTime + 0.01
		}
		current.Id = transcription.SegmentID(len(out))
		out = append(out, *current)
		current, words, confSum, confN = nil, nil, 0, 0
	}

	for _, w := range alts[0].GetWords() {
		role := p.cfg.Mapping.Role(int(w.GetSpeakerTag()) - 1)
		start := w.GetStartTime().AsDuration().Seconds()
		end := w.GetEndTime().AsDuration().Seconds()

		if current == nil || current.Speaker != role {
			flush()
			current = &transcription.Segment{
				Speaker:    role,
				StartTime:  start,
				Confidence: transcription.DefaultConfidence,
			}
		}
		current.EndTime = end
		words = append(words, w.GetWord())
		if c := w.GetConfidence(); c > 0 {
			confSum += float64(c)
			confN++
		}
	}
	flush()
	return out
}

type speechClient struct {
	client *speech.Client
}

func (c *speechClient) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return c.client.Recognize(ctx, req)
}

func (c *speechClient) Close() error {
	return c.client.Close()
}

func dialSpeech(ctx context.Context, cred credential.Credential) (recognizer, error) {
	opts := []option.ClientOption{option.WithAPIKey(cred.APIKey)}
	if cred.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cred.Endpoint))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &speechClient{client: client}, nil
}
