package web

import (
	"wine-classifier/internal/features"
	"wine-classifier/internal/ml"
	"wine-classifier/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PredictResponse is the result of one classification.
type PredictResponse struct {
	ID         string                  `json:"id"`
	Input      features.RawObservation `json:"input"`
	ModelInput features.ModelInput     `json:"model_input"`
	Prediction int                     `json:"prediction"`
	Verdict    ml.DisplayMessage       `json:"verdict"`
}

// classify validates, transforms, predicts and records one observation.
func (s *Server) classify(raw features.RawObservation) (*PredictResponse, error) {
	if err := raw.Validate(); err != nil {
		s.metrics.InvalidInputsInc()
		return nil, err
	}

	in := features.TransformWithMetrics(raw, s.metrics)

	label, err := s.classifier.Classify(in)
	if err != nil {
		return nil, err
	}

	resp := &PredictResponse{
		ID:         uuid.New().String(),
		Input:      raw,
		ModelInput: in,
		Prediction: int(label),
		Verdict:    ml.Present(label),
	}

	if s.history != nil {
		_, err := s.history.Save(storage.Record{
			ID:         resp.ID,
			Input:      raw,
			ModelInput: in,
			Prediction: resp.Prediction,
			Category:   string(resp.Verdict.Category),
		})
		if err != nil {
			// history is best effort
			log.Warn().Err(err).Str("id", resp.ID).Msg("failed to record classification")
		}
	}

	return resp, nil
}
