package soap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParseRoundTrip(t *testing.T) {
	notes := []Note{
		{
			Subjective: "Headache for three days.\nWorse in the morning.",
			Objective:  "Temp 38.1C. Throat erythematous.",
			Assessment: "Likely viral pharyngitis.",
			Plan:       "Rapid strep test.\n- fluids\n- acetaminophen as needed",
		},
		Note{Subjective: "Only subjective."}.Complete(),
	}

	for _, n := range notes {
		parsed, err := Parse(Format(n))
		require.NoError(t, err)
		assert.Equal(t, n, parsed)
	}
}

func TestFormatUsesLiteralHeaders(t *testing.T) {
	out := Format(Note{Subjective: "s", Objective: "o", Assessment: "a", Plan: "p"})
	assert.Equal(t, "SUBJECTIVE:\ns\n\nOBJECTIVE:\no\n\nASSESSMENT:\na\n\nPLAN:\np\n", out)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Note
		wantErr error
	}{
		{
			name:  "inline bodies and mixed case",
			input: "Subjective: sore throat\nobjective: none\nAssessment: pharyngitis\nplan: fluids",
			want:  Note{Subjective: "sore throat", Objective: "none", Assessment: "pharyngitis", Plan: "fluids"},
		},
		{
			name:  "markdown emphasis and preamble",
			input: "Here is the note.\n\n**Subjective:** cough\n## Objective:\nclear lungs\n**ASSESSMENT**: bronchitis\n*Plan*: rest",
			want:  Note{Subjective: "cough", Objective: "clear lungs", Assessment: "bronchitis", Plan: "rest"},
		},
		{
			name:  "out of order sections",
			input: "PLAN: rest\nSUBJECTIVE: tired",
			want: Note{
				Subjective: "tired",
				Objective:  Objective.Placeholder(),
				Assessment: Assessment.Placeholder(),
				Plan:       "rest",
			},
		},
		{
			name:  "header word inside a body is not a boundary",
			input: "SUBJECTIVE: patient asked about the plan: and the cost\nPLAN: follow up",
			want: Note{
				Subjective: "patient asked about the plan: and the cost",
				Objective:  Objective.Placeholder(),
				Assessment: Assessment.Placeholder(),
				Plan:       "follow up",
			},
		},
		{
			name:  "repeated header keeps the first body",
			input: "PLAN: first\nPLAN: second",
			want: Note{
				Subjective: Subjective.Placeholder(),
				Objective:  Objective.Placeholder(),
				Assessment: Assessment.Placeholder(),
				Plan:       "first",
			},
		},
		{
			name:    "no headers",
			input:   "I cannot help with that.",
			want:    Note{}.Complete(),
			wantErr: ErrNoSections,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompleteNeverLeavesBlankSections(t *testing.T) {
	n := Note{Subjective: "  ", Plan: "rest "}.Complete()
	for _, s := range sections {
		assert.NotEmpty(t, n.Get(s), s.String())
	}
	assert.Equal(t, "rest", n.Plan)
}
