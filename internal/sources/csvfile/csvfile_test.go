package csvfile_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eurometrics/internal/model"
	"eurometrics/internal/sources/csvfile"
)

func TestRead_ParsesRowsAndAliases(t *testing.T) {
	t.Parallel()

	input := "\ufeffEntity,Metric,Year,Metric_Value,Unit,Source\n" +
		"Germany,GDP,2020,3.8,usd,World Bank\n" +
		"France,gdp,2021,,usd,World Bank\n" +
		"italy,gdp,2021,2.1,usd,\n"

	observations, err := csvfile.Read(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []model.Observation{
		{Country: "germany", MetricName: "gdp", Year: 2020, Value: 3.8, Unit: "usd", Source: "World Bank"},
		{Country: "italy", MetricName: "gdp", Year: 2021, Value: 2.1, Unit: "usd"},
	}, observations)
}

func TestRead_MissingColumn(t *testing.T) {
	t.Parallel()

	_, err := csvfile.Read(strings.NewReader("country,year,value\ngermany,2020,1\n"))
	assert.ErrorIs(t, err, csvfile.ErrMissingColumn)
}

func TestRead_InvalidNumberReportsLine(t *testing.T) {
	t.Parallel()

	_, err := csvfile.Read(strings.NewReader("country,metric_name,year,value\ngermany,gdp,2020,1\nfrance,gdp,20x1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestRead_Empty(t *testing.T) {
	t.Parallel()

	observations, err := csvfile.Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, observations)
}

func TestSource_ObservationsReadsFilesInOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "a.csv")
	second := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(first, []byte("country,metric_name,year,value\nspain,population,2020,47000000\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("country,metric_name,year,value\nportugal,population,2020,10300000\n"), 0o600))

	source := csvfile.New(first, second)
	assert.Equal(t, "csv", source.Name())

	observations, err := source.Observations(context.Background())
	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.Equal(t, "spain", observations[0].Country)
	assert.Equal(t, "portugal", observations[1].Country)
}

func TestSource_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := csvfile.New(filepath.Join(t.TempDir(), "missing.csv")).Observations(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
