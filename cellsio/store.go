package cellsio

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"hex-tools/celltools"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidateTableName accepts plain identifiers, optionally schema-qualified.
func ValidateTableName(table string) error {
	if len(table) > 127 || !tableNamePattern.MatchString(table) {
		return errors.Wrapf(celltools.ErrPersistence, "invalid table name %q", table)
	}
	return nil
}

// TableStore replaces whole tables of (hex_index, value) rows. The drop,
// create and insert happen in one transaction, so a failed load leaves the
// previous table untouched.
type TableStore struct {
	db     *sql.DB
	driver string
}

func OpenStore(driver, dsn string) (*TableStore, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, errors.Wrapf(celltools.ErrPersistence, "unknown store driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(celltools.ErrPersistence, "open %s: %v", driver, err)
	}
	if driver == DriverSQLite {
		// One writer; a second connection would not see the open transaction.
		db.SetMaxOpenConns(1)
	}
	return &TableStore{db: db, driver: driver}, nil
}

func (s *TableStore) Close() error {
	return s.db.Close()
}

func (s *TableStore) quote(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func (s *TableStore) ReplaceTable(ctx context.Context, table string, result celltools.AggregationResult) (err error) {
	if err := ValidateTableName(table); err != nil {
		return err
	}
	logrus.Infof("Creating or replacing table %s", table)
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(celltools.ErrPersistence, "begin: %v", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
				logrus.Errorf("Rollback of %s failed: %v", table, rerr)
			}
		}
	}()

	quoted := s.quote(table)
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoted)); err != nil {
		return errors.Wrapf(celltools.ErrPersistence, "drop %s: %v", table, err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (hex_index TEXT PRIMARY KEY, value FLOAT)", quoted)
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return errors.Wrapf(celltools.ErrPersistence, "create %s: %v", table, err)
	}

	if s.driver == DriverPostgres {
		err = copyRows(ctx, tx, table, result)
	} else {
		err = insertRows(ctx, tx, quoted, result)
	}
	if err != nil {
		return errors.Wrapf(celltools.ErrPersistence, "insert into %s: %v", table, err)
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrapf(celltools.ErrPersistence, "commit %s: %v", table, err)
	}
	logrus.Infof("Table %s replaced with %s rows in %v", table, humanize.Comma(int64(len(result))), time.Since(start).Round(time.Millisecond))
	return nil
}

// copyRows streams rows through COPY FROM STDIN.
func copyRows(ctx context.Context, tx *sql.Tx, table string, result celltools.AggregationResult) error {
	query := pq.CopyIn(table, "hex_index", "value")
	if schema, name, ok := strings.Cut(table, "."); ok {
		query = pq.CopyInSchema(schema, name, "hex_index", "value")
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	for _, cv := range result {
		if _, err := stmt.ExecContext(ctx, cv.Cell.String(), nullableValue(cv.Value)); err != nil {
			stmt.Close()
			return err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return err
	}
	return stmt.Close()
}

func insertRows(ctx context.Context, tx *sql.Tx, quoted string, result celltools.AggregationResult) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (hex_index, value) VALUES (?, ?)", quoted))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, cv := range result {
		if _, err := stmt.ExecContext(ctx, cv.Cell.String(), nullableValue(cv.Value)); err != nil {
			return err
		}
	}
	return nil
}

func nullableValue(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
