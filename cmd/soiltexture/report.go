package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mimir-aip/soil-texture/pkg/models"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7a89"))
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTrainingReport(w io.Writer, run *models.TrainingRun) error {
	var b strings.Builder
	fmt.Fprintln(&b, headingStyle.Render("Training run "+run.ID))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Dataset:"), run.DatasetPath)
	fmt.Fprintf(&b, "%s %d train / %d test (seed %d, %d trees)\n",
		labelStyle.Render("Split:"), run.TrainSize, run.TestSize, run.Config.RandomSeed, run.Config.NumTrees)

	if m := run.PerformanceMetrics; m != nil {
		fmt.Fprintf(&b, "%s %.2f%%\n\n", labelStyle.Render("Accuracy:"), m.Accuracy*100)

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Texture", "Precision", "Recall", "F1", "Support")
		for _, class := range models.AllTextureClasses() {
			cm, ok := m.PerClass[class]
			if !ok {
				continue
			}
			t.Row(class.String(),
				fmt.Sprintf("%.3f", cm.Precision),
				fmt.Sprintf("%.3f", cm.Recall),
				fmt.Sprintf("%.3f", cm.F1Score),
				fmt.Sprintf("%d", cm.Support),
			)
		}
		fmt.Fprintln(&b, t.String())
	}

	if len(run.FeatureImportance) > 0 {
		fmt.Fprintln(&b, labelStyle.Render("Feature importance:"))
		for _, name := range slices.Sorted(maps.Keys(run.FeatureImportance)) {
			fmt.Fprintf(&b, "  %-10s %.3f\n", name, run.FeatureImportance[name])
		}
	}
	fmt.Fprintln(&b, mutedStyle.Render(fmt.Sprintf("trained in %s", run.Duration)))

	_, err := io.WriteString(w, b.String())
	return err
}

func writeDiagnosis(w io.Writer, d *models.Diagnosis) error {
	var b strings.Builder
	fmt.Fprintln(&b, headingStyle.Render("Predicted texture"))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Texture:"), d.Prediction.Label)
	fmt.Fprintf(&b, "%s %.1f%%\n", labelStyle.Render("Confidence:"), d.Prediction.ConfidencePct)
	fmt.Fprintf(&b, "%s\n\n", mutedStyle.Render(fmt.Sprintf("clay %g%% / silt %g%% / sand %g%%",
		d.Sample.ClayPct, d.Sample.SiltPct, d.Sample.SandPct)))
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	return writeRecommendation(w, d.Prediction.Texture, d.Recommendation)
}

func writeRecommendation(w io.Writer, texture models.TextureClass, rec models.RecommendationRecord) error {
	var b strings.Builder
	fmt.Fprintln(&b, headingStyle.Render("Recommendations for "+texture.String()))
	groups := []struct {
		title string
		rows  [][2]string
	}{
		{"Crops", [][2]string{
			{"Primary crops", rec.PrimaryCrops},
			{"Staple crops", rec.StapleCrops},
			{"Vegetable crops", rec.VegetableCrops},
			{"Favorable zones", rec.FavorableZones},
		}},
		{"Soil management", [][2]string{
			{"Irrigation", rec.Irrigation},
			{"Fertilization", rec.Fertilization},
			{"Precautions", rec.Precautions},
		}},
	}
	for _, group := range groups {
		fmt.Fprintln(&b, mutedStyle.Render(group.title))
		for _, row := range group.rows {
			fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render(row[0]+":"), row[1])
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeTextures(w io.Writer) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Code", "Name", "Label")
	for _, class := range models.AllTextureClasses() {
		t.Row(class.Code(), class.String(), class.Label())
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}
