package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mimir-aip/soil-texture/pkg/models"
	"github.com/mimir-aip/soil-texture/pkg/recommendation"
)

const (
	defaultPredictionListLimit = 50
	maxPredictionListLimit     = 1000
	maxRequestBodyBytes        = 1 << 16
)

// TextureInfo describes one texture class
type TextureInfo struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// RecommendationResponse is the body of GET /api/v1/recommendations/{texture}
type RecommendationResponse struct {
	Texture        TextureInfo                 `json:"texture"`
	Recommendation models.RecommendationRecord `json:"recommendation"`
}

// PredictionResponse is the body of POST /api/v1/predictions
type PredictionResponse struct {
	ID string `json:"id,omitempty"` // set when history is enabled
	*models.Diagnosis
}

func textureInfo(t models.TextureClass) TextureInfo {
	return TextureInfo{Code: t.Code(), Name: t.String(), Label: t.Label()}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"model_trained":   s.classifier != nil,
		"history_enabled": s.store != nil,
	})
}

// handleListTextures handles GET /api/v1/textures
func (s *Server) handleListTextures(w http.ResponseWriter, r *http.Request) {
	classes := models.AllTextureClasses()
	textures := make([]TextureInfo, 0, len(classes))
	for _, t := range classes {
		textures = append(textures, textureInfo(t))
	}
	writeJSONResponse(w, http.StatusOK, textures)
}

// handleGetModel handles GET /api/v1/model
func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	run := s.classifier.TrainingRun()
	if run == nil {
		writeServiceError(w, models.ErrModelNotTrained)
		return
	}
	writeJSONResponse(w, http.StatusOK, run)
}

// handleCreatePrediction handles POST /api/v1/predictions
func (s *Server) handleCreatePrediction(w http.ResponseWriter, r *http.Request) {
	var sample models.SoilSample
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&sample); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	diagnosis, err := s.classifier.Diagnose(sample)
	if err != nil {
		if !models.IsValidationError(err) {
			s.logger.Error("prediction failed", zap.Error(err), zap.String("request_id", RequestID(r.Context())))
		}
		writeServiceError(w, err)
		return
	}

	resp := PredictionResponse{Diagnosis: diagnosis}
	if s.store != nil {
		record := &models.PredictionRecord{
			ID:            uuid.New().String(),
			Sample:        sample,
			Texture:       diagnosis.Prediction.Texture,
			ConfidencePct: diagnosis.Prediction.ConfidencePct,
			CreatedAt:     time.Now().UTC(),
		}
		if run := s.classifier.TrainingRun(); run != nil {
			record.RunID = run.ID
		}
		// History is best effort: the caller still gets the prediction.
		if err := s.store.SavePrediction(record); err != nil {
			s.logger.Warn("failed to record prediction", zap.Error(err))
		} else {
			resp.ID = record.ID
		}
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// handleListPredictions handles GET /api/v1/predictions?limit=N
func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeErrorResponse(w, http.StatusNotFound, "prediction history is disabled")
		return
	}

	limit := defaultPredictionListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("limit must be a positive integer, got %q", raw))
			return
		}
		limit = min(n, maxPredictionListLimit)
	}

	records, err := s.store.ListPredictions(limit)
	if err != nil {
		s.logger.Error("failed to list predictions", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, records)
}

// handleGetPrediction handles GET /api/v1/predictions/{id}
func (s *Server) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeErrorResponse(w, http.StatusNotFound, "prediction history is disabled")
		return
	}

	record, err := s.store.GetPrediction(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, record)
}

// handleGetRecommendation handles GET /api/v1/recommendations/{texture}.
// The texture may be given as a code, a name or a full label.
func (s *Server) handleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	texture, err := models.ParseTextureClass(mux.Vars(r)["texture"])
	if err != nil {
		writeErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, RecommendationResponse{
		Texture:        textureInfo(texture),
		Recommendation: recommendation.Lookup(texture),
	})
}
