package transcription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpeakerOverrides(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[int]Speaker
		wantErr bool
	}{
		{name: "empty", raw: "", want: nil},
		{name: "pairs", raw: "0=Patient, 3=doctor", want: map[int]Speaker{0: SpeakerPatient, 3: SpeakerDoctor}},
		{name: "missing role", raw: "0", wantErr: true},
		{name: "negative index", raw: "-1=Doctor", wantErr: true},
		{name: "unknown role", raw: "1=Nurse", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpeakerOverrides(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpeakerMappingOverridesWinOverParity(t *testing.T) {
	overrides, err := ParseSpeakerOverrides("0=Patient")
	require.NoError(t, err)

	m := DefaultSpeakerMapping()
	m.Overrides = overrides

	assert.Equal(t, SpeakerPatient, m.Role(0))
	assert.Equal(t, SpeakerPatient, m.Role(1))
	assert.Equal(t, SpeakerDoctor, m.Role(2))
	assert.Equal(t, SpeakerUnknown, m.Role(-1))

	swapped := m.Swapped()
	assert.Equal(t, SpeakerPatient, swapped.Role(0))
	assert.Equal(t, SpeakerDoctor, swapped.Role(1))
}
