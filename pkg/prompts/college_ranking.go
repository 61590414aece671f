package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/collegematch/collegematch-engine/pkg/models"
)

// Fit score rubric weights, in percent.
const (
	WeightCost     = 50
	WeightAcademic = 25
	WeightLocation = 15
	WeightProgram  = 10
)

// Cost tier boundaries as fractions of the student's budget.
const (
	ExcellentCeiling = 0.50
	GoodCeiling      = 0.75
)

// BuildCollegeRankingPrompt creates the prompt asking the model to rank every
// candidate for the given profile. The reply must be a bare JSON array of
// {id, rank, cost_rating, fit_score, analysis} objects.
func BuildCollegeRankingPrompt(profile *models.Profile, candidates []models.Candidate) (string, error) {
	candidatesJSON, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal candidates: %w", err)
	}

	var prompt strings.Builder

	prompt.WriteString("# College Ranking\n\n")
	prompt.WriteString("You are a college admissions and financial aid advisor. Rank the colleges below for this student, ")
	prompt.WriteString("weighing affordability first.\n\n")

	prompt.WriteString("## Student Profile\n\n")
	writeProfileSummary(&prompt, profile)

	prompt.WriteString(fmt.Sprintf("\n## Colleges (%d)\n\n", len(candidates)))
	prompt.WriteString("```json\n")
	prompt.Write(candidatesJSON)
	prompt.WriteString("\n```\n\n")

	prompt.WriteString("## Instructions\n\n")
	prompt.WriteString(fmt.Sprintf("1. Include every college exactly once, using its \"id\" exactly as given. Assign ranks 1 through %d with no gaps or ties (1 = best fit).\n", len(candidates)))
	prompt.WriteString("2. Assign a cost_rating from annual tuition relative to the student's budget:\n")
	prompt.WriteString(fmt.Sprintf("   - \"Excellent\": under %.0f%% of budget (below $%s)\n", ExcellentCeiling*100, formatDollars(profile.Budget*ExcellentCeiling)))
	prompt.WriteString(fmt.Sprintf("   - \"Good\": %.0f%%-%.0f%% of budget ($%s to $%s)\n", ExcellentCeiling*100, GoodCeiling*100,
		formatDollars(profile.Budget*ExcellentCeiling), formatDollars(profile.Budget*GoodCeiling)))
	prompt.WriteString(fmt.Sprintf("   - \"Fair\": %.0f%%-100%% of budget ($%s to $%s)\n", GoodCeiling*100,
		formatDollars(profile.Budget*GoodCeiling), formatDollars(profile.Budget)))
	prompt.WriteString("   Use in-state tuition for colleges in the student's preferred states, out-of-state tuition otherwise when known.\n")
	prompt.WriteString("3. Give a fit_score from 0 to 100 using these weights:\n")
	prompt.WriteString(fmt.Sprintf("   - Cost: %d%%\n", WeightCost))
	prompt.WriteString(fmt.Sprintf("   - Academic match (GPA and test scores vs. admission rate and averages): %d%%\n", WeightAcademic))
	prompt.WriteString(fmt.Sprintf("   - Location preference: %d%%\n", WeightLocation))
	prompt.WriteString(fmt.Sprintf("   - Program fit for the intended major: %d%%\n", WeightProgram))
	prompt.WriteString("4. Write a two or three sentence analysis for each college explaining the rating and score.\n\n")

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("Return ONLY a JSON array, with no text before or after it:\n\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`[
  {
    "id": "<college id>",
    "rank": 1,
    "cost_rating": "Excellent",
    "fit_score": 87,
    "analysis": "..."
  }
]`)
	prompt.WriteString("\n```\n")

	return prompt.String(), nil
}

func writeProfileSummary(b *strings.Builder, p *models.Profile) {
	b.WriteString(fmt.Sprintf("- Annual budget: $%s\n", formatDollars(p.Budget)))
	b.WriteString(fmt.Sprintf("- Household income: $%s\n", formatDollars(p.Income)))
	b.WriteString(fmt.Sprintf("- Intended major: %s\n", p.Major))
	b.WriteString(fmt.Sprintf("- GPA: %.2f\n", p.GPA))
	if p.TestScores.SAT != nil {
		b.WriteString(fmt.Sprintf("- SAT: %d\n", *p.TestScores.SAT))
	}
	if p.TestScores.ACT != nil {
		b.WriteString(fmt.Sprintf("- ACT: %d\n", *p.TestScores.ACT))
	}
	b.WriteString(fmt.Sprintf("- Preferred states: %s\n", strings.Join(p.LocationPreferences, ", ")))
	if len(p.Extracurriculars) > 0 {
		b.WriteString(fmt.Sprintf("- Extracurriculars: %s\n", strings.Join(p.Extracurriculars, "; ")))
	}
}

// formatDollars renders a whole-dollar amount with thousands separators.
func formatDollars(v float64) string {
	return message.NewPrinter(language.English).Sprintf("%.0f", v)
}
