package soap

import (
	"context"
	"strings"

	"convohealth-be/pkg/transcription"
)

const (
	ExtractiveGeneratorName = "extractive"

	ObjectivePlaceholder = "No exam data available from transcript."
	noFindings           = "No specific symptoms identified in the conversation. Clinical evaluation recommended."
)

// symptomVocabulary is scanned in order; the first spelling listed for a
// symptom is the one reported.
var symptomVocabulary = []struct {
	label    string
	keywords []string
}{
	{"headache", []string{"headache", "migraine"}},
	{"sore throat", []string{"sore throat", "throat pain"}},
	{"fever", []string{"fever", "temperature", "chills"}},
	{"cough", []string{"cough"}},
	{"fatigue", []string{"tired", "fatigue", "exhausted"}},
	{"nausea", []string{"nausea", "nauseous", "vomit"}},
	{"dizziness", []string{"dizzy", "dizziness", "lightheaded"}},
	{"chest pain", []string{"chest pain", "chest tightness"}},
	{"shortness of breath", []string{"short of breath", "shortness of breath", "breathing"}},
	{"abdominal pain", []string{"stomach", "abdominal", "belly"}},
	{"back pain", []string{"back pain", "back hurts"}},
	{"rash", []string{"rash", "itch"}},
	{"congestion", []string{"congestion", "stuffy", "runny nose"}},
	{"diarrhea", []string{"diarrhea"}},
}

// ExtractiveGenerator builds a note directly from transcript content without
// any network call.
type ExtractiveGenerator struct{}

var _ Generator = ExtractiveGenerator{}

func (ExtractiveGenerator) Name() string {
	return ExtractiveGeneratorName
}

func (ExtractiveGenerator) Generate(_ context.Context, transcript transcription.Transcript) (Note, error) {
	patient := transcript.TextBy(transcription.SpeakerPatient)
	doctor := transcript.TextBy(transcription.SpeakerDoctor)

	note := Note{
		Subjective: strings.Join(patient, " "),
		Objective:  ObjectivePlaceholder,
		Assessment: assess(patient),
		Plan:       strings.Join(doctor, " "),
	}
	return note.Complete(), nil
}

func assess(patientLines []string) string {
	text := strings.ToLower(strings.Join(patientLines, " "))
	var found []string
	for _, symptom := range symptomVocabulary {
		for _, kw := range symptom.keywords {
			if strings.Contains(text, kw) {
				found = append(found, symptom.label)
				break
			}
		}
	}
	if len(found) == 0 {
		return noFindings
	}
	return "Patient reports " + joinList(found) + ". Further clinical evaluation is needed to confirm a diagnosis."
}

func joinList(items []string) string {
	switch len(items) {
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
