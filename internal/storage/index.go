package storage

import (
	"database/sql"
	"embed"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	indexFile = "runs.db"
	// Fixed width so created_at sorts as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Index is a sqlite catalogue of saved runs and their metrics.
type Index struct {
	db *sql.DB
}

func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open run index")
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "exec %q", pragma)
		}
	}
	idx := &Index{db: db}
	if err := idx.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) migrateUp() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "load migrations")
	}
	driver, err := sqlite.WithInstance(i.db, &sqlite.Config{})
	if err != nil {
		return errors.Wrap(err, "create sqlite driver")
	}
	// The migrate instance is not closed; that would close i.db.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return errors.Wrap(err, "create migrate instance")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migration up failed")
	}
	return nil
}

func (i *Index) Close() error { return i.db.Close() }

func (i *Index) Record(meta RunMetadata) error {
	tx, err := i.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, scenario, plugin, preset, created_at, dt, duration, samples, rejections)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Scenario, meta.Plugin, meta.Preset, meta.Timestamp.UTC().Format(timeLayout),
		meta.Dt, meta.Duration, meta.Samples, meta.Rejections,
	); err != nil {
		return errors.Wrap(err, "insert run")
	}
	for name, v := range meta.Metrics {
		if _, err := tx.Exec(`INSERT INTO run_metrics (run_id, name, value) VALUES (?, ?, ?)`, meta.ID, name, v); err != nil {
			return errors.Wrapf(err, "insert metric %s", name)
		}
	}
	return tx.Commit()
}

// Query lists runs newest first. An empty scenario matches every run.
func (i *Index) Query(scenario string) ([]RunMetadata, error) {
	rows, err := i.db.Query(
		`SELECT id, scenario, plugin, preset, created_at, dt, duration, samples, rejections
		 FROM runs WHERE ? = '' OR scenario = ? ORDER BY created_at DESC, id`,
		scenario, scenario)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var meta RunMetadata
		var created string
		if err := rows.Scan(&meta.ID, &meta.Scenario, &meta.Plugin, &meta.Preset, &created,
			&meta.Dt, &meta.Duration, &meta.Samples, &meta.Rejections); err != nil {
			return nil, err
		}
		if meta.Timestamp, err = time.Parse(timeLayout, created); err != nil {
			return nil, errors.Wrapf(err, "run %s timestamp", meta.ID)
		}
		runs = append(runs, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for n := range runs {
		if runs[n].Metrics, err = i.metrics(runs[n].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (i *Index) metrics(id string) (map[string]float64, error) {
	rows, err := i.db.Query(`SELECT name, value FROM run_metrics WHERE run_id = ?`, id)
	if err != nil {
		return nil, errors.Wrap(err, "query metrics")
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var name string
		var v float64
		if err := rows.Scan(&name, &v); err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, rows.Err()
}

// Best returns the run of scenario with the lowest value of metric.
func (i *Index) Best(scenario, metric string) (string, float64, error) {
	var id string
	var v float64
	err := i.db.QueryRow(
		`SELECT r.id, m.value FROM runs r JOIN run_metrics m ON m.run_id = r.id
		 WHERE r.scenario = ? AND m.name = ? ORDER BY m.value ASC LIMIT 1`,
		scenario, metric).Scan(&id, &v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, errors.Wrapf(ErrRunNotFound, "no %s runs with %s", scenario, metric)
	}
	return id, v, err
}

func (i *Index) Delete(id string) error {
	res, err := i.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete run")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrRunNotFound, "%s", id)
	}
	return nil
}
