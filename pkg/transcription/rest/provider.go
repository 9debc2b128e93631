// Package rest calls a hosted speech-to-text endpoint that returns diarized
// segments, uploading audio either as multipart form data or as base64 JSON.
package rest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"convohealth-be/pkg/credential"
	"convohealth-be/pkg/transcription"

	"github.com/go-resty/resty/v2"
)

const Name = "speech_to_text"

type Upload string

const (
	UploadMultipart Upload = "multipart"
	UploadJSON      Upload = "json"
)

type Config struct {
	Upload       Upload
	FileName     string
	ContentType  string
	Language     string
	SpeakerCount int
	Mapping      transcription.SpeakerMapping
	Timeout      time.Duration
}

type Provider struct {
	client      *resty.Client
	credentials credential.Lookup
	cfg         Config
}

var _ transcription.Transcriber = (*Provider)(nil)

func New(credentials credential.Lookup, cfg Config) *Provider {
	if cfg.Upload == "" {
		cfg.Upload = UploadMultipart
	}
	if cfg.FileName == "" {
		cfg.FileName = "recording.webm"
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "audio/webm"
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.SpeakerCount == 0 {
		cfg.SpeakerCount = 2
	}
	if cfg.Mapping.Even == "" && cfg.Mapping.Odd == "" {
		cfg.Mapping = transcription.DefaultSpeakerMapping()
	}

	client := resty.New()
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Provider{client: client, credentials: credentials, cfg: cfg}
}

func (p *Provider) Name() string {
	return Name
}

// --- wire types ---

type jsonRequest struct {
	Audio        string `json:"audio"`
	Encoding     string `json:"encoding"`
	Language     string `json:"language"`
	Diarize      bool   `json:"diarize"`
	SpeakerCount int    `json:"speaker_count"`
}

type segmentResponse struct {
	Segments []wireSegment `json:"segments"`
}

type wireSegment struct {
	Speaker    json.RawMessage `json:"speaker"`
	Start      *float64        `json:"start"`
	End        *float64        `json:"end"`
	Text       string          `json:"text"`
	Confidence *float64        `json:"confidence"`
}

func (p *Provider) Transcribe(ctx context.Context, audio []byte) (transcription.Transcript, error) {
	if len(audio) == 0 {
		return nil, transcription.NewError(Name, transcription.ErrNoAudio)
	}

	cred, err := p.credentials.Active(ctx, credential.ProviderSpeechToText)
	if err != nil {
		return nil, transcription.NewError(Name, fmt.Errorf("%w: %v", transcription.ErrNoCredential, err))
	}
	if cred.Endpoint == "" {
		return nil, transcription.NewError(Name, fmt.Errorf("%w: endpoint not configured", transcription.ErrNoCredential))
	}

	req := p.client.R().
		SetContext(ctx).
		SetAuthToken(cred.APIKey).
		SetHeader("Accept", "application/json")

	switch p.cfg.Upload {
	case UploadJSON:
		req.SetHeader("Content-Type", "application/json").
			SetBody(jsonRequest{
				Audio:        base64.StdEncoding.EncodeToString(audio),
				Encoding:     p.cfg.ContentType,
				Language:     p.cfg.Language,
				Diarize:      true,
				SpeakerCount: p.cfg.SpeakerCount,
			})
	default:
		req.SetFileReader("file", p.cfg.FileName, bytes.NewReader(audio)).
			SetFormData(map[string]string{
				"language":      p.cfg.Language,
				"diarize":       "true",
				"speaker_count": strconv.Itoa(p.cfg.SpeakerCount),
			})
	}

	resp, err := req.Post(cred.Endpoint)
	if err != nil {
		return nil, transcription.NewError(Name, fmt.Errorf("request failed: %w", err))
	}
	if resp.IsError() {
		return nil, transcription.NewError(Name, fmt.Errorf("%w: status %d, body: %s",
			transcription.ErrProviderError, resp.StatusCode(), truncate(resp.String(), 256)))
	}

	transcript, err := p.decode(resp.Body())
	if err != nil {
		return nil, transcription.NewError(Name, err)
	}
	return transcript, nil
}

func (p *Provider) decode(body []byte) (transcription.Transcript, error) {
	var parsed segmentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", transcription.ErrBadResponse, err)
	}
	if len(parsed.Segments) == 0 {
		return nil, fmt.Errorf("%w: no segments", transcription.ErrBadResponse)
	}

	out := make(transcription.Transcript, 0, len(parsed.Segments))
	for i, ws := range parsed.Segments {
		if ws.Start == nil || ws.End == nil {
			return nil, fmt.Errorf("%w: segment %d missing offsets", transcription.ErrBadResponse, i)
		}
		text := strings.TrimSpace(ws.Text)
		if text == "" {
			continue
		}
		conf := transcription.DefaultConfidence
		if ws.Confidence != nil {
			conf = *ws.Confidence
		}
		out = append(out, transcription.Segment{
			Speaker:    p.speaker(ws.Speaker),
			Text:       text,
			StartTime:  *ws.Start,
			EndTime:    *ws.End,
			Confidence: conf,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: all segments empty", transcription.ErrBadResponse)
	}
	return out.SortByStart(), nil
}

// speaker accepts a numeric diarization index, a numeric string or an
// explicit role name.
func (p *Provider) speaker(raw json.RawMessage) transcription.Speaker {
	if len(raw) == 0 || string(raw) == "null" {
		return transcription.SpeakerUnknown
	}

	var idx int
	if err := json.Unmarshal(raw, &idx); err == nil {
		return p.cfg.Mapping.Role(idx)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return transcription.SpeakerUnknown
	}
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "speaker_")
	if n, err := strconv.Atoi(s); err == nil {
		return p.cfg.Mapping.Role(n)
	}
	return transcription.ParseSpeaker(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
