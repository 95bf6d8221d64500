package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mimir-aip/soil-texture/pkg/models"
	"github.com/mimir-aip/soil-texture/pkg/recommendation"
)

var (
	clayPct float64
	siltPct float64
	sandPct float64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the classifier and print held-out metrics",
	Args:  cobra.NoArgs,
	RunE:  runTrain,
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the texture of a soil sample",
	Long: `Trains the classifier, then predicts the texture class of the sample
given by --clay, --silt and --sand and prints its recommendations.
The three percentages must sum to 100.

Example:
  soiltexture predict --clay 45 --silt 15 --sand 40`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <texture>",
	Short: "Print the recommendations for a texture class",
	Long: `Prints the crop and soil management recommendations for a texture
class given by code (clay_loam), name (Clay loam) or label.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecommend,
}

var texturesCmd = &cobra.Command{
	Use:   "textures",
	Short: "List the supported texture classes",
	Args:  cobra.NoArgs,
	RunE:  runTextures,
}

func runTrain(cmd *cobra.Command, args []string) error {
	svc, err := trainService()
	if err != nil {
		return err
	}
	run := svc.TrainingRun()

	store, err := openHistory()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		if err := store.SaveTrainingRun(run); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, run)
	}
	return writeTrainingReport(out, run)
}

func runPredict(cmd *cobra.Command, args []string) error {
	sample := models.SoilSample{ClayPct: clayPct, SiltPct: siltPct, SandPct: sandPct}
	// Reject a bad sample before paying for training.
	if err := sample.Validate(); err != nil {
		return err
	}

	svc, err := trainService()
	if err != nil {
		return err
	}
	diagnosis, err := svc.Diagnose(sample)
	if err != nil {
		return err
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		run := svc.TrainingRun()
		if err := store.SaveTrainingRun(run); err != nil {
			return err
		}
		record := &models.PredictionRecord{
			ID:            uuid.New().String(),
			RunID:         run.ID,
			Sample:        sample,
			Texture:       diagnosis.Prediction.Texture,
			ConfidencePct: diagnosis.Prediction.ConfidencePct,
			CreatedAt:     time.Now().UTC(),
		}
		if err := store.SavePrediction(record); err != nil {
			logger.Warn("failed to record prediction", zap.Error(err))
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, diagnosis)
	}
	return writeDiagnosis(out, diagnosis)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	texture, err := models.ParseTextureClass(args[0])
	if err != nil {
		return err
	}
	rec := recommendation.Lookup(texture)

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, rec)
	}
	return writeRecommendation(out, texture, rec)
}

func runTextures(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, models.AllTextureClasses())
	}
	return writeTextures(out)
}
