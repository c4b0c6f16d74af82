package web

import (
	"net/http"
	"strconv"

	"wine-classifier/internal/features"
	"wine-classifier/internal/ml"
	"wine-classifier/internal/storage"
)

// SchemaResponse describes the accepted input and the model row.
type SchemaResponse struct {
	Controls       []features.Control `json:"controls"`
	InputSchema    []string           `json:"input_schema"`
	DroppedColumns []string           `json:"dropped_columns"`
}

// HistoryResponse lists recent classifications, newest first.
type HistoryResponse struct {
	Records []storage.Record `json:"records"`
}

func (s *Server) handlePredict(r *http.Request) (any, error) {
	data, err := readBody(r)
	if err != nil {
		return nil, err
	}
	raw, err := decodeObservation(data)
	if err != nil {
		s.metrics.InvalidInputsInc()
		return nil, err
	}
	return s.classify(raw)
}

func (s *Server) handleTransform(r *http.Request) (any, error) {
	data, err := readBody(r)
	if err != nil {
		return nil, err
	}
	raw, err := decodeObservation(data)
	if err != nil {
		s.metrics.InvalidInputsInc()
		return nil, err
	}
	if err := raw.Validate(); err != nil {
		s.metrics.InvalidInputsInc()
		return nil, err
	}
	return features.TransformWithMetrics(raw, s.metrics), nil
}

func (s *Server) handleSchema(r *http.Request) (any, error) {
	return SchemaResponse{
		Controls:       features.Controls,
		InputSchema:    features.InputSchema,
		DroppedColumns: features.DroppedColumns,
	}, nil
}

func (s *Server) handleModel(r *http.Request) (any, error) {
	if !s.classifier.Available() {
		return nil, ml.ErrModelUnavailable
	}
	return s.classifier.Metadata(), nil
}

func (s *Server) handleHistory(r *http.Request) (any, error) {
	if s.history == nil {
		return nil, codedErrorf(http.StatusNotFound, "classification history is disabled")
	}

	limit := s.cfg.HistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, codedErrorf(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, s.cfg.HistoryLimit)
	}

	records, err := s.history.Recent(limit)
	if err != nil {
		return nil, err
	}
	return HistoryResponse{Records: records}, nil
}
