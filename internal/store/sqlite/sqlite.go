package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"eurometrics/internal/model"
	"eurometrics/internal/store"
)

const metricsTable = "metrics"

//go:embed migrations/*.sql
var migrationFS embed.FS

var observationColumns = []string{
	"country", "metric_name", "year", "metric_value", "unit", "source", "description", "coverage",
}

var observationStruct = sqlbuilder.NewStruct(new(observationRow)).For(sqlbuilder.SQLite)

type observationRow struct {
	Country     string          `db:"country"`
	MetricName  string          `db:"metric_name"`
	Year        int             `db:"year"`
	Value       float64         `db:"metric_value"`
	Unit        sql.NullString  `db:"unit"`
	Source      sql.NullString  `db:"source"`
	Description sql.NullString  `db:"description"`
	Coverage    sql.NullFloat64 `db:"coverage"`
	CreatedAt   string          `db:"created_at"`
	UpdatedAt   string          `db:"updated_at"`
}

func fromObservation(observation model.Observation, now string) observationRow {
	row := observationRow{
		Country:     observation.Country,
		MetricName:  observation.MetricName,
		Year:        observation.Year,
		Value:       observation.Value,
		Unit:        sql.NullString{String: observation.Unit, Valid: observation.Unit != ""},
		Source:      sql.NullString{String: observation.Source, Valid: observation.Source != ""},
		Description: sql.NullString{String: observation.Description, Valid: observation.Description != ""},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if observation.Coverage != nil {
		row.Coverage = sql.NullFloat64{Float64: *observation.Coverage, Valid: true}
	}
	return row
}

func toObservation(row observationRow) model.Observation {
	observation := model.Observation{
		Country:     row.Country,
		MetricName:  row.MetricName,
		Year:        row.Year,
		Value:       row.Value,
		Unit:        row.Unit.String,
		Source:      row.Source.String,
		Description: row.Description.String,
	}
	if row.Coverage.Valid {
		observation.Coverage = model.Float(row.Coverage.Float64)
	}
	return observation
}

type Store struct {
	db *sqlx.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) GetObservation(ctx context.Context, metric, country string, year int) (model.Observation, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(observationColumns...).From(metricsTable)
	sb.Where(
		sb.Equal("metric_name", metric),
		sb.Equal("country", country),
		sb.Equal("year", year),
	)
	sb.Limit(1)
	query, args := sb.Build()

	var row observationRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Observation{}, store.ErrNotFound
		}
		return model.Observation{}, errors.Wrap(err, "sqlite: get observation")
	}
	return toObservation(row), nil
}

func (s *Store) ListObservationsBefore(ctx context.Context, metric, country string, year int) ([]model.YearValue, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("year", "metric_value").From(metricsTable)
	sb.Where(
		sb.Equal("metric_name", metric),
		sb.Equal("country", country),
		sb.LessThan("year", year),
	)
	sb.OrderBy("year").Desc()
	query, args := sb.Build()

	var rows []struct {
		Year  int     `db:"year"`
		Value float64 `db:"metric_value"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "sqlite: list observations before year")
	}

	points := make([]model.YearValue, 0, len(rows))
	for _, row := range rows {
		points = append(points, model.YearValue{Year: row.Year, Value: row.Value})
	}
	return points, nil
}

func (s *Store) ListObservations(ctx context.Context, metric string, countries []string) ([]model.Observation, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(observationColumns...).From(metricsTable)
	sb.Where(sb.Equal("metric_name", metric))
	if len(countries) > 0 {
		sb.Where(sb.In("country", toArgs(countries)...))
	}
	sb.OrderBy("country", "year")
	query, args := sb.Build()

	var rows []observationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "sqlite: list observations")
	}

	observations := make([]model.Observation, 0, len(rows))
	for _, row := range rows {
		observations = append(observations, toObservation(row))
	}
	return observations, nil
}

func (s *Store) DistinctYears(ctx context.Context, metric string, countries []string) ([]int, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("year").Distinct().From(metricsTable)
	sb.Where(sb.Equal("metric_name", metric))
	if len(countries) > 0 {
		sb.Where(sb.In("country", toArgs(countries)...))
	}
	sb.OrderBy("year")
	query, args := sb.Build()

	years := make([]int, 0)
	if err := s.db.SelectContext(ctx, &years, query, args...); err != nil {
		return nil, errors.Wrap(err, "sqlite: distinct years")
	}
	return years, nil
}

func (s *Store) DistinctCountries(ctx context.Context, metric string) ([]string, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("country").Distinct().From(metricsTable)
	sb.Where(sb.Equal("metric_name", metric))
	sb.OrderBy("country")
	query, args := sb.Build()

	countries := make([]string, 0)
	if err := s.db.SelectContext(ctx, &countries, query, args...); err != nil {
		return nil, errors.Wrap(err, "sqlite: distinct countries")
	}
	return countries, nil
}

func (s *Store) ListMetrics(ctx context.Context, country string) ([]string, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("metric_name").Distinct().From(metricsTable)
	if country != "" {
		sb.Where(sb.Equal("country", country))
	}
	sb.OrderBy("metric_name")
	query, args := sb.Build()

	metrics := make([]string, 0)
	if err := s.db.SelectContext(ctx, &metrics, query, args...); err != nil {
		return nil, errors.Wrap(err, "sqlite: list metrics")
	}
	return metrics, nil
}

func (s *Store) SampleUnit(ctx context.Context, metric string, excludeCountries []string) (string, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("unit").From(metricsTable)
	sb.Where(
		sb.Equal("metric_name", metric),
		sb.IsNotNull("unit"),
		sb.NotIn("unit", "", "units"),
	)
	if len(excludeCountries) > 0 {
		sb.Where(sb.NotIn("country", toArgs(excludeCountries)...))
	}
	sb.OrderBy("country", "year")
	sb.Limit(1)
	query, args := sb.Build()

	var unit string
	if err := s.db.GetContext(ctx, &unit, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", errors.Wrap(err, "sqlite: sample unit")
	}
	return unit, nil
}

func (s *Store) UpsertObservation(ctx context.Context, observation model.Observation) error {
	return s.UpsertObservations(ctx, []model.Observation{observation})
}

func (s *Store) UpsertObservations(ctx context.Context, observations []model.Observation) (err error) {
	if len(observations) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "sqlite: begin upsert")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339)
	for i := range observations {
		query, args := upsertQuery(fromObservation(observations[i], now))
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrapf(err, "sqlite: upsert %s/%s/%d",
				observations[i].Country, observations[i].MetricName, observations[i].Year)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "sqlite: commit upsert")
	}
	return nil
}

// upsertQuery rewrites every data column on conflict so a replaced row never
// keeps fields from its previous version.
func upsertQuery(row observationRow) (string, []interface{}) {
	ib := observationStruct.InsertInto(metricsTable, &row)
	ib.SQL(`ON CONFLICT (country, metric_name, year) DO UPDATE SET
		metric_value = excluded.metric_value,
		unit = excluded.unit,
		source = excluded.source,
		description = excluded.description,
		coverage = excluded.coverage,
		updated_at = excluded.updated_at`)
	return ib.Build()
}

func (s *Store) DeleteObservation(ctx context.Context, country, metric string, year int) error {
	db := sqlbuilder.SQLite.NewDeleteBuilder()
	db.DeleteFrom(metricsTable)
	db.Where(
		db.Equal("country", country),
		db.Equal("metric_name", metric),
		db.Equal("year", year),
	)
	query, args := db.Build()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "sqlite: delete %s/%s/%d", country, metric, year)
	}
	return nil
}

func (s *Store) migrate() error {
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "sqlite: open migrations")
	}
	driver, err := sqlitemigrate.WithInstance(s.db.DB, &sqlitemigrate.Config{})
	if err != nil {
		return errors.Wrap(err, "sqlite: migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return errors.Wrap(err, "sqlite: migration instance")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "sqlite: apply migrations")
	}
	return nil
}

func toArgs(values []string) []interface{} {
	args := make([]interface{}, 0, len(values))
	for _, value := range values {
		args = append(args, value)
	}
	return args
}
