package commands

import (
	"context"

	"qc-analytics/internal/database"
	"qc-analytics/internal/events"
	"qc-analytics/internal/files"
)

// Store is the persistence the service drives. *database.Database
// implements it.
type Store interface {
	InitDatabase(ctx context.Context) error
	CreateSession(ctx context.Context, qcName, folderPath string) (int64, error)
	EndSession(ctx context.Context, sessionID int64) error
	SaveQCRecord(ctx context.Context, rec database.QCRecordPayload) error
	GetSessionHistory(ctx context.Context, qcName string) ([]database.SessionSummary, error)
	GetAnalyticsData(ctx context.Context, qcName string) (database.AnalyticsSummary, error)
	GetAnalyticsRecords(ctx context.Context, qcName string) ([]database.AnalyticsRecord, error)
	GetDailyBreakdown(ctx context.Context, qcName string) ([]database.DailyStat, error)
	GetNextActionDistribution(ctx context.Context, qcName string) ([]database.ActionCount, error)
	SaveAppSetting(ctx context.Context, key, value string) error
	LoadAppSettings(ctx context.Context) ([]database.AppSetting, error)
}

// Publisher receives change events after successful mutations.
// *events.Hub implements it.
type Publisher interface {
	Publish(eventType string, payload any)
}

// CreateSessionPayload is the argument of create_session.
type CreateSessionPayload struct {
	QCName     string `json:"qcName"`
	FolderPath string `json:"folderPath"`
}

// Service implements the command surface offered to the desktop shell.
type Service struct {
	store     Store
	publisher Publisher
	dbPath    string
}

// New creates a Service. publisher may be nil.
func New(store Store, publisher Publisher, dbPath string) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		dbPath:    dbPath,
	}
}

func (s *Service) publish(eventType string, payload any) {
	if s.publisher != nil {
		s.publisher.Publish(eventType, payload)
	}
}

// InitDatabase creates or migrates the schema.
func (s *Service) InitDatabase(ctx context.Context) error {
	return s.store.InitDatabase(ctx)
}

// CreateSession starts a QC session and returns its id.
func (s *Service) CreateSession(ctx context.Context, p CreateSessionPayload) (int64, error) {
	if err := validateSession(p); err != nil {
		return 0, err
	}

	id, err := s.store.CreateSession(ctx, p.QCName, p.FolderPath)
	if err != nil {
		return 0, err
	}

	s.publish(events.TypeSessionCreated, map[string]any{
		"id":         id,
		"qcName":     p.QCName,
		"folderPath": p.FolderPath,
	})
	return id, nil
}

// EndSession closes a QC session.
func (s *Service) EndSession(ctx context.Context, sessionID int64) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if err := s.store.EndSession(ctx, sessionID); err != nil {
		return err
	}

	s.publish(events.TypeSessionEnded, map[string]any{"sessionId": sessionID})
	return nil
}

// SaveQCRecord validates, normalizes and upserts one record.
func (s *Service) SaveQCRecord(ctx context.Context, rec database.QCRecordPayload) error {
	rec, err := normalizeRecord(rec)
	if err != nil {
		return err
	}
	if err := s.store.SaveQCRecord(ctx, rec); err != nil {
		return err
	}

	s.publish(events.TypeRecordSaved, map[string]any{
		"sessionId":  rec.SessionID,
		"filename":   rec.Filename,
		"qcName":     rec.QCName,
		"qcDecision": rec.QCDecision,
	})
	return nil
}

// GetSessionHistory lists the sessions of qcName, newest first.
func (s *Service) GetSessionHistory(ctx context.Context, qcName string) ([]database.SessionSummary, error) {
	return s.store.GetSessionHistory(ctx, qcName)
}

// GetAnalyticsData summarizes the active measurements of qcName.
func (s *Service) GetAnalyticsData(ctx context.Context, qcName string) (database.AnalyticsSummary, error) {
	return s.store.GetAnalyticsData(ctx, qcName)
}

// GetAnalyticsRecords lists the active measurements of qcName.
func (s *Service) GetAnalyticsRecords(ctx context.Context, qcName string) ([]database.AnalyticsRecord, error) {
	return s.store.GetAnalyticsRecords(ctx, qcName)
}

// GetDailyBreakdown groups the active measurements of qcName by day.
func (s *Service) GetDailyBreakdown(ctx context.Context, qcName string) ([]database.DailyStat, error) {
	return s.store.GetDailyBreakdown(ctx, qcName)
}

// GetNextActionDistribution counts the active measurements of qcName by
// next action.
func (s *Service) GetNextActionDistribution(ctx context.Context, qcName string) ([]database.ActionCount, error) {
	return s.store.GetNextActionDistribution(ctx, qcName)
}

// SaveAppSetting stores one UI preference.
func (s *Service) SaveAppSetting(ctx context.Context, key, value string) error {
	if err := requireNonEmpty("key", key); err != nil {
		return err
	}
	if err := s.store.SaveAppSetting(ctx, key, value); err != nil {
		return err
	}

	s.publish(events.TypeSettingSaved, map[string]any{"key": key})
	return nil
}

// LoadAppSettings returns every stored preference.
func (s *Service) LoadAppSettings(ctx context.Context) ([]database.AppSetting, error) {
	return s.store.LoadAppSettings(ctx)
}

// DatabasePath returns the path of the database file.
func (s *Service) DatabasePath() string {
	return s.dbPath
}

// OrganizeFiles copies the reviewed files into one output folder and
// returns the summary line shown to the reviewer.
func (s *Service) OrganizeFiles(ctx context.Context, req files.OrganizeRequest) (string, error) {
	if err := requireNonEmpty("directory", req.Directory); err != nil {
		return "", err
	}
	if err := requireNonEmpty("outputFolder", req.OutputFolder); err != nil {
		return "", err
	}

	result, err := files.Organize(ctx, req)
	if err != nil {
		return "", err
	}
	return result.Summary(), nil
}
