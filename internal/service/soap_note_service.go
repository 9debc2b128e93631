package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"convohealth-be/internal/dto"
	"convohealth-be/internal/entity"
	"convohealth-be/internal/pkg/logger"
	"convohealth-be/internal/repository/specification"
	"convohealth-be/internal/repository/unitofwork"
	"convohealth-be/pkg/events"
	"convohealth-be/pkg/metrics"
	"convohealth-be/pkg/soap"
	"convohealth-be/pkg/usage"

	"github.com/google/uuid"
)

var (
	ErrNoteNotFound    = errors.New("soap note not found")
	ErrUnauthenticated = errors.New("no authenticated owner")
)

// PersistenceError reports a rejected or failed write/read of saved notes.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("soap note %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

const previewLength = 140

type ISoapNoteService interface {
	Save(ctx context.Context, ownerId uuid.UUID, req *dto.SaveSoapNoteRequest) (*dto.SoapNoteResponse, error)
	List(ctx context.Context, ownerId uuid.UUID) ([]*dto.SoapNoteListItem, error)
	Show(ctx context.Context, ownerId uuid.UUID, id uuid.UUID) (*dto.SoapNoteResponse, error)
	Delete(ctx context.Context, ownerId uuid.UUID, id uuid.UUID) error
	Export(ctx context.Context, ownerId uuid.UUID, id uuid.UUID) (*dto.SoapNoteExportResponse, error)
	PurgeExpired(ctx context.Context) (*dto.PurgeResult, error)
}

type soapNoteService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  events.Publisher
	metrics    *metrics.Metrics
	logger     logger.ILogger
	now        func() time.Time
}

func NewSoapNoteService(
	uowFactory unitofwork.RepositoryFactory,
	publisher events.Publisher,
	m *metrics.Metrics,
	log logger.ILogger,
	now func() time.Time,
) ISoapNoteService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if now == nil {
		now = time.Now
	}
	return &soapNoteService{
		uowFactory: uowFactory,
		publisher:  publisher,
		metrics:    m,
		logger:     log,
		now:        now,
	}
}

func (s *soapNoteService) clock() time.Time {
	return s.now().UTC()
}

func (s *soapNoteService) Save(ctx context.Context, ownerId uuid.UUID, req *dto.SaveSoapNoteRequest) (*dto.SoapNoteResponse, error) {
	if ownerId == uuid.Nil {
		return nil, &PersistenceError{Op: "save", Err: ErrUnauthenticated}
	}

	minutes := req.DurationSeconds / 60
	if math.IsNaN(minutes) || minutes < 0 || minutes > usage.MaxSessionMinutes {
		return nil, &PersistenceError{Op: "save", Err: usage.ErrInvalidDuration}
	}

	now := s.clock()
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultNoteTitle(now)
	}

	note := entity.SoapNote{
		Id:                uuid.New(),
		UserId:            ownerId,
		Title:             title,
		Note:              req.Note.Complete(),
		Transcript:        req.Transcript,
		RecordingDuration: math.Round(minutes*100) / 100,
		CreatedAt:         now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SoapNoteRepository().Create(ctx, &note); err != nil {
		s.logger.Error("SoapNoteService", "Failed to save note", map[string]interface{}{
			"user_id": ownerId,
			"error":   err.Error(),
		})
		return nil, &PersistenceError{Op: "save", Err: err}
	}

	s.metrics.NotesSaved.Inc()
	s.publish(ctx, events.New(events.SoapNoteSaved, map[string]interface{}{
		"user_id":    ownerId.String(),
		"note_id":    note.Id.String(),
		"title":      note.Title,
		"expires_at": note.ExpiresAt.Format(time.RFC3339),
	}))

	return s.toResponse(&note, now), nil
}

func (s *soapNoteService) List(ctx context.Context, ownerId uuid.UUID) ([]*dto.SoapNoteListItem, error) {
	if ownerId == uuid.Nil {
		return nil, &PersistenceError{Op: "list", Err: ErrUnauthenticated}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.SoapNoteRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: ownerId},
		specification.NewestFirst{},
	)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}

	now := s.clock()
	items := make([]*dto.SoapNoteListItem, 0, len(notes))
	for _, n := range notes {
		items = append(items, &dto.SoapNoteListItem{
			Id:                n.Id,
			Title:             n.Title,
			Preview:           preview(n.Note.Subjective),
			RecordingDuration: n.RecordingDuration,
			CreatedAt:         n.CreatedAt,
			ExpiresAt:         n.ExpiresAt,
			IsExpired:         n.IsExpired(now),
		})
	}
	return items, nil
}

func (s *soapNoteService) find(ctx context.Context, ownerId, id uuid.UUID) (*entity.SoapNote, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.SoapNoteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: ownerId},
	)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

func (s *soapNoteService) Show(ctx context.Context, ownerId uuid.UUID, id uuid.UUID) (*dto.SoapNoteResponse, error) {
	note, err := s.find(ctx, ownerId, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(note, s.clock()), nil
}

// Delete removes only the caller's own note; another owner's id looks the
// same as a missing one.
func (s *soapNoteService) Delete(ctx context.Context, ownerId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	deleted, err := uow.SoapNoteRepository().Delete(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: ownerId},
	)
	if err != nil {
		return &PersistenceError{Op: "delete", Err: err}
	}
	if deleted == 0 {
		return ErrNoteNotFound
	}

	s.metrics.NotesDeleted.Inc()
	s.publish(ctx, events.New(events.SoapNoteDeleted, map[string]interface{}{
		"user_id": ownerId.String(),
		"note_id": id.String(),
	}))
	return nil
}

func (s *soapNoteService) Export(ctx context.Context, ownerId uuid.UUID, id uuid.UUID) (*dto.SoapNoteExportResponse, error) {
	note, err := s.find(ctx, ownerId, id)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(note.Title)
	b.WriteString("\n")
	b.WriteString(note.CreatedAt.Format("January 2, 2006 3:04 PM"))
	b.WriteString("\n\n")
	b.WriteString(soap.Format(note.Note))

	return &dto.SoapNoteExportResponse{
		Id:       note.Id,
		Filename: fmt.Sprintf("soap-note-%s.txt", note.CreatedAt.Format("2006-01-02-1504")),
		Content:  b.String(),
	}, nil
}

// PurgeExpired hard-deletes every note whose retention window has closed.
func (s *soapNoteService) PurgeExpired(ctx context.Context) (*dto.PurgeResult, error) {
	now := s.clock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	deleted, err := uow.SoapNoteRepository().Delete(ctx, specification.ExpiredAt{Now: now})
	if err != nil {
		s.logger.Error("SoapNoteService", "Expiration sweep failed", map[string]interface{}{"error": err.Error()})
		return nil, &PersistenceError{Op: "purge", Err: err}
	}

	if deleted > 0 {
		s.metrics.NotesPurged.Add(float64(deleted))
		s.logger.Info("SoapNoteService", "Expired notes purged", map[string]interface{}{"deleted": deleted})
		s.publish(ctx, events.New(events.SoapNotesPurged, map[string]interface{}{
			"deleted": deleted,
			"before":  now.Format(time.RFC3339),
		}))
	}

	return &dto.PurgeResult{Deleted: deleted, At: now}, nil
}

// publish never fails the caller; the bus is auxiliary.
func (s *soapNoteService) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("SoapNoteService", "Failed to publish event", map[string]interface{}{
			"type":  evt.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *soapNoteService) toResponse(n *entity.SoapNote, now time.Time) *dto.SoapNoteResponse {
	return &dto.SoapNoteResponse{
		Id:                n.Id,
		Title:             n.Title,
		Note:              n.Note,
		Transcript:        n.Transcript,
		RecordingDuration: n.RecordingDuration,
		CreatedAt:         n.CreatedAt,
		ExpiresAt:         n.ExpiresAt,
		IsExpired:         n.IsExpired(now),
	}
}

func DefaultNoteTitle(t time.Time) string {
	return "SOAP Note - " + t.Format("Jan 2, 2006 3:04 PM")
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= previewLength {
		return s
	}
	return strings.TrimSpace(string(r[:previewLength])) + "..."
}
