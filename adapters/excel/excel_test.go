package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pmcestimator/ports"
)

func writeCSVFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadTasksFromCSV(t *testing.T) {
	path := writeCSVFixture(t, `task_name,optimistic,mostLikely,pessimistic,targetValue,confidenceLevel,optimize,adaptive,probeLevel,budgetFlexibility,scheduleFlexibility,scopeCertainty,scopeReductionAllowance,reworkPercentage,riskTolerance,userConfidence
api-migration,1800,2400,3000,2100,confident,true,yes,2,70,60,55,40,10,65,75
quick-fix,5,8,15,,,,,,,,,,,,
`)

	tasks, err := NewTaskReader(path).ReadTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	first := tasks[0]
	assert.Equal(t, "api-migration", first.Name)
	assert.Equal(t, 1800.0, first.Optimistic)
	assert.Equal(t, 2400.0, first.MostLikely)
	assert.Equal(t, 3000.0, first.Pessimistic)
	require.NotNil(t, first.TargetValue)
	assert.Equal(t, 2100.0, *first.TargetValue)
	assert.Equal(t, "confident", first.ConfidenceLevel)
	assert.True(t, first.Optimize)
	assert.True(t, first.Adaptive)
	assert.Equal(t, 2, first.ProbeLevel)
	require.NotNil(t, first.SliderValues)
	assert.Equal(t, 70.0, first.SliderValues.BudgetFlexibility)
	assert.Equal(t, 10.0, first.SliderValues.ReworkPercentage)

	second := tasks[1]
	assert.Equal(t, "quick-fix", second.Name)
	assert.Nil(t, second.TargetValue)
	assert.Nil(t, second.SliderValues)
	assert.False(t, second.Optimize)
}

func TestReadTasksHeaderSpellings(t *testing.T) {
	path := writeCSVFixture(t, `Task Name,Optimistic,Most Likely,Pessimistic,Target Value
spaced-headers,10,20,30,18
`)

	tasks, err := NewTaskReader(path).ReadTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "spaced-headers", tasks[0].Name)
	assert.Equal(t, 20.0, tasks[0].MostLikely)
	require.NotNil(t, tasks[0].TargetValue)
	assert.Equal(t, 18.0, *tasks[0].TargetValue)
}

func TestReadTasksPartialSlidersDefaultNeutral(t *testing.T) {
	path := writeCSVFixture(t, `task_name,optimistic,mostLikely,pessimistic,budgetFlexibility
partial,10,20,30,80
`)

	tasks, err := NewTaskReader(path).ReadTasks(context.Background())
	require.NoError(t, err)
	require.NotNil(t, tasks[0].SliderValues)
	assert.Equal(t, 80.0, tasks[0].SliderValues.BudgetFlexibility)
	// Columns the row leaves blank stay at the neutral zero setting
	assert.Equal(t, 0.0, tasks[0].SliderValues.ScheduleFlexibility)
	assert.Equal(t, 0.0, tasks[0].SliderValues.ReworkPercentage)
}

func TestReadTasksRejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"missing name":      "task_name,optimistic,mostLikely,pessimistic\n,10,20,30\n",
		"non-numeric bound": "task_name,optimistic,mostLikely,pessimistic\nt,ten,20,30\n",
		"missing bound":     "task_name,optimistic,mostLikely,pessimistic\nt,10,,30\n",
		"bad slider value":  "task_name,optimistic,mostLikely,pessimistic,riskTolerance\nt,10,20,30,high\n",
		"header only":       "task_name,optimistic,mostLikely,pessimistic\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeCSVFixture(t, content)
			_, err := NewTaskReader(path).ReadTasks(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestReadTasksMissingFile(t *testing.T) {
	_, err := NewTaskReader(filepath.Join(t.TempDir(), "nope.xlsx")).ReadTasks(context.Background())
	assert.Error(t, err)
}

func TestReadTasksFromExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"task_name", "optimistic", "mostLikely", "pessimistic", "targetValue", "optimize"},
		{"sheet-task", 100, 150, 260, 140, "true"},
	}
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tasks, err := NewTaskReader(path).ReadTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "sheet-task", tasks[0].Name)
	assert.Equal(t, 260.0, tasks[0].Pessimistic)
	assert.True(t, tasks[0].Optimize)
}

func TestWriteResultsExcelRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	records := []ports.ResultRecord{
		{
			Name: "task-a", Original: 0.12, Adjusted: 0.25,
			AdjustedOptimized: 0.41, AdaptiveOptimized: 0.44,
			CalculationMode: "multiplicative", Source: "local_refinement",
			Feedback: "sliders reshaped the estimate", ChainingDrift: 0.013,
		},
		{Name: "task-b", Error: "most likely must not exceed pessimistic"},
	}

	require.NoError(t, NewResultWriter(path).WriteResults(context.Background(), records))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, resultHeaders, rows[0])
	assert.Equal(t, "task-a", rows[1][0])
	assert.Equal(t, "multiplicative", rows[1][6])
	assert.Equal(t, "task-b", rows[2][0])
	assert.Equal(t, "most likely must not exceed pessimistic", rows[2][1])
}

func TestWriteResultsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	records := []ports.ResultRecord{
		{Name: "csv-task", Original: 0.5, Adjusted: 0.5, AdjustedOptimized: 0.5, AdaptiveOptimized: 0.5},
	}

	require.NoError(t, NewResultWriter(path).WriteResults(context.Background(), records))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "task_name,error,original")
	assert.Contains(t, string(content), "csv-task")
}
