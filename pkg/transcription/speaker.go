package transcription

import (
	"fmt"
	"strconv"
	"strings"
)

// SpeakerMapping converts a provider's numeric diarization index into a role.
//
// Providers number speakers in order of first detection and say nothing about
// who is who. The default assumes the clinician speaks first (even indexes are
// the doctor); Overrides pin specific indexes when that assumption is wrong.
type SpeakerMapping struct {
	Even      Speaker
	Odd       Speaker
	Overrides map[int]Speaker
}

func DefaultSpeakerMapping() SpeakerMapping {
	return SpeakerMapping{Even: SpeakerDoctor, Odd: SpeakerPatient}
}

// Swapped returns the mapping with the parity roles exchanged.
func (m SpeakerMapping) Swapped() SpeakerMapping {
	return SpeakerMapping{Even: m.Odd, Odd: m.Even, Overrides: m.Overrides}
}

func (m SpeakerMapping) Role(index int) Speaker {
	if role, ok := m.Overrides[index]; ok {
		return role
	}
	if index < 0 {
		return SpeakerUnknown
	}
	even, odd := m.Even, m.Odd
	if even == "" {
		even = SpeakerDoctor
	}
	if odd == "" {
		odd = SpeakerPatient
	}
	if index%2 == 0 {
		return even
	}
	return odd
}

// ParseSpeakerOverrides reads "index=Role" pairs separated by commas, e.g.
// "0=Patient,1=Doctor". Roles are matched case-insensitively.
func ParseSpeakerOverrides(raw string) (map[int]Speaker, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	out := make(map[int]Speaker)
	for _, pair := range strings.Split(raw, ",") {
		idx, role, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("speaker override %q: want index=role", pair)
		}
		index, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil || index < 0 {
			return nil, fmt.Errorf("speaker override %q: bad index", pair)
		}
		switch {
		case strings.EqualFold(strings.TrimSpace(role), string(SpeakerDoctor)):
			out[index] = SpeakerDoctor
		case strings.EqualFold(strings.TrimSpace(role), string(SpeakerPatient)):
			out[index] = SpeakerPatient
		default:
			return nil, fmt.Errorf("speaker override %q: unknown role", pair)
		}
	}
	return out, nil
}
