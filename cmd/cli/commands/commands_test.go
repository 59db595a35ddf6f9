package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-allocator/internal/config"
	"github.com/jakechorley/exam-allocator/pkg/core/allocation"
	"github.com/jakechorley/exam-allocator/pkg/core/model"
	"github.com/jakechorley/exam-allocator/pkg/core/schedule"
	"github.com/jakechorley/exam-allocator/pkg/core/services"
	"github.com/jakechorley/exam-allocator/pkg/db"
	"github.com/jakechorley/exam-allocator/pkg/sheetssql"
)

func testApp(t *testing.T, out *bytes.Buffer) *AppContext {
	t.Helper()
	return &AppContext{
		Logger: zap.NewNop(),
		Ctx:    context.Background(),
		Out:    out,
	}
}

func memoryPapers(t *testing.T) *db.DB {
	t.Helper()
	schema, err := db.Schema()
	require.NoError(t, err)
	ssql, err := sheetssql.NewDB(sheetssql.NewMemoryClient(), "papers", schema)
	require.NoError(t, err)
	return db.NewDB(ssql)
}

func TestStatusColor(t *testing.T) {
	tests := []struct {
		status   allocation.FillStatus
		expected string
	}{
		{allocation.FillStatusMet, "GREEN"},
		{allocation.FillStatusUnderfilled, "YELLOW"},
		{allocation.FillStatusEmpty, "RED"},
		{allocation.FillStatus("unknown"), "RED"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, statusColor(tt.status, "GREEN", "YELLOW", "RED"))
		})
	}
}

func TestPercentOf(t *testing.T) {
	assert.Equal(t, 50.0, percentOf(5, 10))
	assert.Equal(t, 120.0, percentOf(12, 10))
	assert.Equal(t, 100.0, percentOf(0, 0))
}

func TestParseWeightArgs_Valid(t *testing.T) {
	weights, err := parseWeightArgs([]string{"Algebra=40", "Geometry=35.5%", " Calculus = 24.5 "})
	require.NoError(t, err)
	assert.Equal(t, []model.Weight{
		{Key: "Algebra", Percent: 40},
		{Key: "Geometry", Percent: 35.5},
		{Key: "Calculus", Percent: 24.5},
	}, weights)
}

func TestParseWeightArgs_Invalid(t *testing.T) {
	_, err := parseWeightArgs([]string{"Algebra"})
	assert.ErrorContains(t, err, "weight must be key=percent")

	_, err = parseWeightArgs([]string{"=40"})
	assert.ErrorContains(t, err, "weight must be key=percent")

	_, err = parseWeightArgs([]string{"Algebra=lots"})
	assert.ErrorContains(t, err, "invalid percent for Algebra")
}

func TestApportionCmd_LargestRemainder(t *testing.T) {
	var out bytes.Buffer
	cmd := ApportionCmd(testApp(t, &out))

	require.NoError(t, cmd.RunE(cmd, []string{"10", "a=33.3", "b=33.3", "c=33.4"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"a", "3"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"b", "3"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"c", "4"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"Total", "10"}, strings.Fields(lines[3]))
}

func TestApportionCmd_BadTotal(t *testing.T) {
	var out bytes.Buffer
	cmd := ApportionCmd(testApp(t, &out))

	err := cmd.RunE(cmd, []string{"ten", "a=50"})
	assert.ErrorContains(t, err, "total must be a number")
}

func TestWritePaper_ShowsBucketsAndWarnings(t *testing.T) {
	paper := &services.PaperResult{
		ID:   "paper-1",
		Seed: 9,
		Result: &allocation.AllocationResult{
			Buckets: []allocation.BucketResult{
				{
					ID:             "A",
					Label:          "Section A",
					Items:          []model.ContentItem{{ID: "q1", Category: "Algebra", Tier: model.TierMustCrack, Difficulty: "easy", Weight: 15}},
					AchievedWeight: 15,
					TargetWeight:   20,
					Status:         allocation.FillStatusUnderfilled,
				},
			},
			AchievedWeight: 15,
			TargetWeight:   20,
			Categories:     []allocation.AttributeSummary{{Key: "Algebra", TargetWeight: 20, AchievedWeight: 15, ItemCount: 1}},
			UnknownIDs:     []string{"zz"},
		},
	}

	var out bytes.Buffer
	writePaper(&out, paper)
	text := out.String()

	assert.Contains(t, text, "Paper paper-1 (seed 9)")
	assert.Contains(t, text, "Total: 15 / 20 marks, 1 questions")
	assert.Contains(t, text, "Section A")
	assert.Contains(t, text, "15/20 underfilled")
	assert.Contains(t, text, "q1")
	assert.Contains(t, text, "Section A: 5 marks short of target")
	assert.Contains(t, text, "75.0%")
	assert.Contains(t, text, "Unknown ids: zz")
}

func TestWritePlan_WithSessions(t *testing.T) {
	plan := &services.StudyPlan{
		Budget: 10,
		Rows: []allocation.ResourceAllocationRow{
			{Category: "Algebra", Label: "Algebra", Tier: model.TierMustCrack, DeclaredWeight: 60, Allocated: 6.6},
			{Category: "Geometry", Label: "Geometry", Tier: model.TierHighROI, DeclaredWeight: 40, Allocated: 3.4},
		},
		Sessions: []schedule.Session{
			{
				Date:   time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
				Topics: []schedule.SessionTopic{{Category: "Algebra", Label: "Algebra", Hours: 6.6}},
			},
		},
	}

	var out bytes.Buffer
	writePlan(&out, plan)
	text := out.String()

	assert.Contains(t, text, "Study plan: 10.0 hours")
	assert.Contains(t, text, "must-crack")
	assert.Contains(t, text, "6.6")
	assert.Contains(t, text, "2026-01-05 (Mon)")
}

func TestWritePaperList(t *testing.T) {
	var out bytes.Buffer
	writePaperList(&out, nil)
	assert.Equal(t, "No papers recorded.\n", out.String())

	out.Reset()
	writePaperList(&out, []db.Paper{
		{ID: "p1", CreatedAt: "2026-01-05T10:00:00Z", Mode: db.PaperModeGenerated, AchievedWeight: 18, TargetWeight: 20},
	})
	assert.Contains(t, out.String(), "p1")
	assert.Contains(t, out.String(), "18/20")
}

func TestWriteRecordedPaper_GroupsByBucket(t *testing.T) {
	recorded := &services.RecordedPaper{
		Paper: db.Paper{ID: "p1", Mode: db.PaperModeCurated},
		Items: []db.PaperItem{
			{BucketID: "A", Position: 1, ItemID: "q1"},
			{BucketID: "A", Position: 2, ItemID: "q2"},
			{BucketID: "B", Position: 3, ItemID: "q3"},
		},
	}

	var out bytes.Buffer
	writeRecordedPaper(&out, recorded)
	text := out.String()

	assert.Less(t, strings.Index(text, "q2"), strings.Index(text, "\nB\n"))
	assert.Contains(t, text, " 1. q3")
}

func TestPlanStudyCmd_ExplicitBudgetIsNotReplaced(t *testing.T) {
	var out bytes.Buffer
	app := testApp(t, &out)
	app.Cfg = &config.Config{StudyBudgetHours: 12}

	cmd := PlanStudyCmd(app)
	require.NoError(t, cmd.ParseFlags([]string{"--budget=-5"}))

	err := cmd.RunE(cmd, nil)
	assert.ErrorContains(t, err, "study budget must be positive, got -5")
	assert.Empty(t, out.String())
}

func TestListPapersCmd_NoStore(t *testing.T) {
	var out bytes.Buffer
	cmd := ListPapersCmd(testApp(t, &out))

	err := cmd.RunE(cmd, nil)
	assert.ErrorContains(t, err, "no paper store configured")
}

func TestViewPaperCmd_RecordedPaper(t *testing.T) {
	store := memoryPapers(t)
	require.NoError(t, store.InsertPaper(context.Background(), &db.Paper{ID: "p1", Mode: db.PaperModeGenerated}, []db.PaperItem{
		{ID: "i1", PaperID: "p1", BucketID: "A", Position: 1, ItemID: "q1", Weight: 4},
	}))

	var out bytes.Buffer
	app := testApp(t, &out)
	app.Papers = store

	cmd := ViewPaperCmd(app)
	require.NoError(t, cmd.RunE(cmd, []string{"p1"}))
	assert.Contains(t, out.String(), "Paper p1 (generated")
	assert.Contains(t, out.String(), "q1")
}

func TestImportContentCmd_RequiresPostgres(t *testing.T) {
	var out bytes.Buffer
	cmd := ImportContentCmd(testApp(t, &out))

	err := cmd.RunE(cmd, []string{"content.yaml"})
	assert.ErrorContains(t, err, "requires databaseURL")
}

func TestRunInteractive_RunsCommands(t *testing.T) {
	var out bytes.Buffer
	app := testApp(t, &out)

	root := &cobra.Command{Use: "cli"}
	root.AddCommand(ApportionCmd(app), InteractiveCmd(app))

	input := strings.NewReader("help\n\nbogus\napportion 4 a=50 b=50\napportion 1\nexit\napportion 9 a=1\n")
	require.NoError(t, runInteractive(input, &out, siblingCommands(root.Commands()[0])))

	text := out.String()
	assert.Contains(t, text, "Available commands:")
	assert.NotContains(t, text, "interactive  ")
	assert.Contains(t, text, "Unknown command: bogus")
	assert.Contains(t, text, "Error: requires at least 2 arg(s)")
	assert.Contains(t, text, "Goodbye!")
	assert.NotContains(t, text, "Total                    9")
}

func TestRunInteractive_EndOfInput(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runInteractive(strings.NewReader(""), &out, map[string]*cobra.Command{}))
	assert.Contains(t, out.String(), "> ")
}
