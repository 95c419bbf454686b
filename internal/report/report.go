// Package report renders a solved matching into files and console output.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/campusmatch/matchmaker/internal/match"
	"github.com/campusmatch/matchmaker/internal/profile"
	"github.com/campusmatch/matchmaker/internal/solver"

	"go.uber.org/zap"
)

var csvHeader = []string{
	"person_1",
	"email_1",
	"person_2",
	"email_2",
	"compatibility_score",
	"shared_hobbies",
	"person_1_looking_for",
	"person_2_looking_for",
	"reasoning",
	"key_matches",
	"potential_concerns",
}

// Reporter formats results for one run.
type Reporter struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{logger: logger}
}

// ExportCSV writes the matched pairs to path, best score first.
func (r *Reporter) ExportCSV(path string, roster *profile.Roster, result *solver.Result, edges *match.EdgeSet) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer file.Close()

	if err := r.WriteCSV(file, roster, result, edges); err != nil {
		return err
	}

	r.logger.Info("results exported",
		zap.String("path", path),
		zap.Int("pairs", len(result.Pairs)),
	)
	return nil
}

// WriteCSV renders the matched pairs as CSV rows onto w.
func (r *Reporter) WriteCSV(w io.Writer, roster *profile.Roster, result *solver.Result, edges *match.EdgeSet) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, pair := range result.Pairs {
		a := roster.FindByID(pair.A)
		b := roster.FindByID(pair.B)
		if a == nil || b == nil {
			return fmt.Errorf("pair %d-%d references an unknown profile", pair.A, pair.B)
		}

		row := []string{
			a.Name,
			a.Email,
			b.Name,
			b.Email,
			fmt.Sprintf("%.1f", pair.Score),
			strings.Join(a.SharedHobbies(b), "; "),
			a.LookingFor,
			b.LookingFor,
			"", "", "",
		}

		if edge := edges.Find(pair.A, pair.B); edge != nil && edge.Assessment != nil {
			row[8] = edge.Assessment.Reason
			row[9] = strings.Join(edge.Assessment.KeyMatches, "; ")
			row[10] = strings.Join(edge.Assessment.Concerns, "; ")
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Summary logs the run outcome: couple count, unmatched respondents, and
// any degraded scores that deserve a second look.
func (r *Reporter) Summary(roster *profile.Roster, result *solver.Result, edges *match.EdgeSet) {
	r.logger.Info("matching summary",
		zap.Int("respondents", roster.Len()),
		zap.Int("pairs", len(result.Pairs)),
		zap.Int("unmatched", len(result.Unmatched)),
		zap.Float64("total_score", result.TotalWeight),
	)

	if edges.Warnings > 0 {
		r.logger.Warn("some pairs were scored without AI judgment",
			zap.Int("degraded", edges.Warnings),
		)
	}

	for _, id := range result.Unmatched {
		if p := roster.FindByID(id); p != nil {
			r.logger.Info("unmatched respondent", zap.String("name", p.Name))
		}
	}
}

// TopMatches returns a human-readable list of the n best-scoring admissible
// pairs, whether or not the solver picked them.
func (r *Reporter) TopMatches(roster *profile.Roster, edges *match.EdgeSet, n int) []string {
	var lines []string
	for _, edge := range edges.TopN(n) {
		a := roster.FindByID(edge.A)
		b := roster.FindByID(edge.B)
		if a == nil || b == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s + %s: %.1f", a.Name, b.Name, edge.Score))
	}
	return lines
}

// PairLines renders the final assignment for console display.
func (r *Reporter) PairLines(roster *profile.Roster, result *solver.Result) []string {
	var lines []string
	for _, pair := range result.Pairs {
		a := roster.FindByID(pair.A)
		b := roster.FindByID(pair.B)
		if a == nil || b == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s + %s: %.1f", a.Name, b.Name, pair.Score))
	}
	return lines
}
