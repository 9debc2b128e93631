package mapper

import (
	"encoding/json"

	"convohealth-be/internal/entity"
	"convohealth-be/internal/model"
	"convohealth-be/pkg/soap"
	"convohealth-be/pkg/transcription"

	"gorm.io/datatypes"
)

type SoapNoteMapper struct{}

func NewSoapNoteMapper() *SoapNoteMapper {
	return &SoapNoteMapper{}
}

func (m *SoapNoteMapper) ToEntity(n *model.SoapNote) (*entity.SoapNote, error) {
	if n == nil {
		return nil, nil
	}

	var transcript transcription.Transcript
	if len(n.TranscriptData) > 0 {
		if err := json.Unmarshal(n.TranscriptData, &transcript); err != nil {
			return nil, err
		}
	}

	return &entity.SoapNote{
		Id:     n.Id,
		UserId: n.UserId,
		Title:  n.Title,
		Note: soap.Note{
			Subjective: n.Subjective,
			Objective:  n.Objective,
			Assessment: n.Assessment,
			Plan:       n.Plan,
		},
		Transcript:        transcript,
		RecordingDuration: n.RecordingDuration,
		CreatedAt:         n.CreatedAt,
		ExpiresAt:         n.ExpiresAt,
	}, nil
}

func (m *SoapNoteMapper) ToModel(n *entity.SoapNote) (*model.SoapNote, error) {
	if n == nil {
		return nil, nil
	}

	transcript := n.Transcript
	if transcript == nil {
		transcript = transcription.Transcript{}
	}
	data, err := json.Marshal(transcript)
	if err != nil {
		return nil, err
	}

	return &model.SoapNote{
		Id:                n.Id,
		UserId:            n.UserId,
		Title:             n.Title,
		Subjective:        n.Note.Subjective,
		Objective:         n.Note.Objective,
		Assessment:        n.Note.Assessment,
		Plan:              n.Note.Plan,
		TranscriptData:    datatypes.JSON(data),
		RecordingDuration: n.RecordingDuration,
		CreatedAt:         n.CreatedAt,
		ExpiresAt:         n.ExpiresAt,
	}, nil
}

func (m *SoapNoteMapper) ToEntities(notes []*model.SoapNote) ([]*entity.SoapNote, error) {
	entities := make([]*entity.SoapNote, 0, len(notes))
	for _, n := range notes {
		e, err := m.ToEntity(n)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}
