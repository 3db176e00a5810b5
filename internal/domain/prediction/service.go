package prediction

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AlertRaiser raises a critical alert for a patient.
type AlertRaiser interface {
	RaiseCritical(ctx context.Context, patientID uuid.UUID, title, message string) error
}

const criticalRiskTitle = "Critical CKD Risk"

// Service runs predictions and owns their side effects: persistence,
// caching of the latest result and critical alerts.
type Service struct {
	predictor *Predictor
	repo      Repository
	patients  PatientLookup
	cache     Cache
	alerts    AlertRaiser
	log       zerolog.Logger
}

func NewService(predictor *Predictor, repo Repository, patients PatientLookup, cache Cache, alerts AlertRaiser, log zerolog.Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{
		predictor: predictor,
		repo:      repo,
		patients:  patients,
		cache:     cache,
		alerts:    alerts,
		log:       log.With().Str("component", "prediction_service").Logger(),
	}
}

func (s *Service) Predictor() *Predictor { return s.predictor }

func (s *Service) requirePatient(ctx context.Context, patientID uuid.UUID) error {
	ok, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPatientNotFound
	}
	return nil
}

// Analyze predicts, persists the result and refreshes the cache. A
// critical risk level raises an alert. Cache and alert failures are
// logged and do not fail the call.
func (s *Service) Analyze(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	res, err := s.predictor.Predict(ctx, patientID)
	if err != nil {
		return nil, err
	}
	rec := NewRecord(patientID, res)
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("cache latest prediction")
	}
	if rec.RiskLevel == RiskCritical && s.alerts != nil {
		msg := fmt.Sprintf("%s with %.2f%% confidence, stage %d", rec.PredictionResult, rec.Confidence, res.Stage)
		if err := s.alerts.RaiseCritical(ctx, patientID, criticalRiskTitle, msg); err != nil {
			s.log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("raise critical risk alert")
		}
	}
	return rec, nil
}

// Latest returns the most recent prediction, ErrNotFound when none.
func (s *Service) Latest(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	if rec, err := s.cache.Get(ctx, patientID); err != nil {
		s.log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("read cached prediction")
	} else if rec != nil {
		return rec, nil
	}

	rec, err := s.repo.Latest(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("cache latest prediction")
	}
	return rec, nil
}

func (s *Service) History(ctx context.Context, patientID uuid.UUID) ([]*Record, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, patientID)
}
