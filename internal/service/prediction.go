package service

import (
	"context"
	"fmt"
	"time"

	"github.com/caregraph/caregraph/internal/predictor"
	"github.com/caregraph/caregraph/internal/store"
	"github.com/caregraph/caregraph/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PredictionService runs symptom analysis through the external model and
// keeps the append-only prediction history per patient.
type PredictionService struct {
	store    store.Store
	client   predictor.Client
	resolver *DiseaseResolver
	exec     *executor
	logger   *zap.Logger
}

// NewPredictionService creates a PredictionService.
func NewPredictionService(st store.Store, client predictor.Client, resolver *DiseaseResolver, cascadeTimeout time.Duration, logger *zap.Logger) *PredictionService {
	return &PredictionService{
		store:    st,
		client:   client,
		resolver: resolver,
		exec:     newExecutor(st, cascadeTimeout, logger),
		logger:   logger,
	}
}

// PredictionResult is a stored prediction plus the departments that treat the
// predicted disease.
type PredictionResult struct {
	Prediction  model.AiPrediction         `json:"prediction"`
	Departments []model.DepartmentCategory `json:"departments"`
}

// Predict submits the symptoms to the external model, stores the result on
// the acting patient's record, and resolves the treating departments. Model
// failures are reported as UpstreamError and nothing is stored.
func (s *PredictionService) Predict(ctx context.Context, actor Actor, symptoms []string) (*PredictionResult, error) {
	if err := authorize(actor, ActionPredictionCreate, ""); err != nil {
		return nil, err
	}
	if len(symptoms) == 0 {
		return nil, validationf("at least one symptom is required")
	}

	patient, err := s.store.GetPatientByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, asNotFound(err, "patient record", "")
	}

	result, err := s.client.PredictDisease(ctx, symptoms)
	if err != nil {
		return nil, &UpstreamError{Msg: "symptom analysis failed", Err: err}
	}

	pred := &model.AiPrediction{
		ID:               uuid.New().String(),
		UserID:           actor.UserID,
		PredictedDisease: result.PredictedDisease,
		Description:      result.Description,
		Precautions:      result.Precautions,
		Medications:      result.Medications,
		Workout:          result.Workout,
		Diets:            result.Diets,
		CreatedAt:        time.Now(),
	}

	_, err = s.exec.run(ctx, "patient:"+patient.ID, func(tx store.Store) (*cascadePlan, error) {
		p, err := tx.GetPatient(ctx, patient.ID)
		if err != nil {
			return nil, asNotFound(err, "patient", patient.ID)
		}
		p.PredictionIDs = model.AddID(p.PredictionIDs, pred.ID)
		p.UpdatedAt = time.Now()

		plan := &cascadePlan{}
		plan.add("prediction", pred.ID, "create", func(ctx context.Context, tx store.Store) error {
			return tx.PutPrediction(ctx, pred)
		})
		plan.add("patient", p.ID, "push-prediction", func(ctx context.Context, tx store.Store) error {
			return tx.PutPatient(ctx, p)
		})
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("prediction stored",
		zap.String("prediction_id", pred.ID),
		zap.String("patient_id", patient.ID),
		zap.String("predicted_disease", pred.PredictedDisease),
	)
	return &PredictionResult{
		Prediction:  *pred,
		Departments: s.resolver.Resolve(pred.PredictedDisease),
	}, nil
}

// Get returns one prediction. Admins and the owning user may read it.
func (s *PredictionService) Get(ctx context.Context, actor Actor, id string) (*model.AiPrediction, error) {
	pred, err := s.store.GetPrediction(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "prediction", id)
	}
	if err := authorize(actor, ActionPredictionView, pred.UserID); err != nil {
		return nil, err
	}
	return pred, nil
}

// ListMine returns the acting user's prediction history, oldest first.
func (s *PredictionService) ListMine(ctx context.Context, actor Actor) ([]model.AiPrediction, error) {
	all, err := s.store.ListPredictions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	mine := make([]model.AiPrediction, 0)
	for _, p := range all {
		if p.UserID == actor.UserID {
			mine = append(mine, p)
		}
	}
	return mine, nil
}

// ListAll returns every prediction. Admin only.
func (s *PredictionService) ListAll(ctx context.Context, actor Actor) ([]model.AiPrediction, error) {
	if err := authorize(actor, ActionPredictionList, ""); err != nil {
		return nil, err
	}
	return s.store.ListPredictions(ctx)
}

// Delete removes a prediction and pulls its id from the owning patient's
// history. Admins and the owning user may delete.
func (s *PredictionService) Delete(ctx context.Context, actor Actor, id string) (*PartialCascadeError, error) {
	warn, err := s.exec.run(ctx, "prediction:"+id, func(tx store.Store) (*cascadePlan, error) {
		pred, err := tx.GetPrediction(ctx, id)
		if err != nil {
			return nil, asNotFound(err, "prediction", id)
		}
		if err := authorize(actor, ActionPredictionDelete, pred.UserID); err != nil {
			return nil, err
		}

		plan := &cascadePlan{}
		plan.addDeleteSide("patient", pred.UserID, "pull-prediction", func(ctx context.Context, tx store.Store) error {
			p, err := tx.GetPatientByUserID(ctx, pred.UserID)
			if err != nil {
				return err
			}
			p.PredictionIDs = model.RemoveID(p.PredictionIDs, id)
			return tx.PutPatient(ctx, p)
		})
		plan.add("prediction", id, "delete", func(ctx context.Context, tx store.Store) error {
			return tx.DeletePrediction(ctx, id)
		})
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("prediction deleted", zap.String("prediction_id", id))
	return warn, nil
}
