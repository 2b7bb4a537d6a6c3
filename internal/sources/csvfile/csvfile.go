// Package csvfile reads observations from local CSV exports with a header
// row of country, metric_name, year, value and optional unit, source and
// description columns.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"eurometrics/internal/model"
)

var ErrMissingColumn = errors.New("csvfile: missing required column")

var requiredColumns = []string{"country", "metric_name", "year", "value"}

// aliases maps accepted header spellings onto canonical column names.
var aliases = map[string]string{
	"metric":       "metric_name",
	"metric_value": "value",
	"entity":       "country",
}

type Source struct {
	paths []string
}

func New(paths ...string) *Source {
	return &Source{paths: paths}
}

func (s *Source) Name() string {
	return "csv"
}

// Observations reads every configured file in order.
func (s *Source) Observations(ctx context.Context) ([]model.Observation, error) {
	out := make([]model.Observation, 0)
	for _, path := range s.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		observations, err := readFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, observations...)
	}
	return out, nil
}

func readFile(path string) ([]model.Observation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	observations, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return observations, nil
}

// Read parses one CSV document. Rows with an empty value cell are skipped;
// unparsable numbers fail with the offending line.
func Read(r io.Reader) ([]model.Observation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headerRow, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	header := normalizeHeader(headerRow)
	for _, column := range requiredColumns {
		if _, ok := header[column]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
		}
	}

	observations := make([]model.Observation, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		rawValue := getCell(record, header, "value")
		if rawValue == "" {
			continue
		}
		value, err := strconv.ParseFloat(rawValue, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid value %q", line, rawValue)
		}
		year, err := strconv.Atoi(getCell(record, header, "year"))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid year %q", line, getCell(record, header, "year"))
		}

		observations = append(observations, model.Observation{
			Country:     strings.ToLower(getCell(record, header, "country")),
			MetricName:  strings.ToLower(getCell(record, header, "metric_name")),
			Year:        year,
			Value:       value,
			Unit:        getCell(record, header, "unit"),
			Source:      getCell(record, header, "source"),
			Description: getCell(record, header, "description"),
		})
	}
	return observations, nil
}

func normalizeHeader(header []string) map[string]int {
	result := make(map[string]int, len(header))
	for i, value := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(value, "\ufeff")))
		if key == "" {
			continue
		}
		if canonical, ok := aliases[key]; ok {
			key = canonical
		}
		if _, exists := result[key]; !exists {
			result[key] = i
		}
	}
	return result
}

func getCell(record []string, header map[string]int, key string) string {
	index, ok := header[key]
	if !ok || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}
