// Package store persists normalization run history behind a small
// driver-agnostic interface with SQLite and Postgres implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/oslo-method/nldnorm/internal/model"
)

// ErrNotFound indicates the requested run does not exist.
var ErrNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status   model.RunStatus `json:"status,omitempty"`
	Strategy model.Strategy  `json:"strategy,omitempty"`
	Limit    int             `json:"limit,omitempty"`
}

// Store defines the persistence interface for normalization runs.
type Store interface {
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open selects a driver by name. Unknown drivers are a configuration
// error, rejected up front.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q (want sqlite or postgres)", driver)
	}
}

// scanRun decodes one runs row; shared across drivers.
func scanRun(scan func(dest ...any) error) (*model.Run, error) {
	var run model.Run
	var curveFile, resultJSON, errMsg sql.NullString
	if err := scan(&run.ID, &run.Status, &run.Strategy, &curveFile, &resultJSON, &errMsg, &run.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "store: scan run")
	}
	run.CurveFile = curveFile.String
	run.Error = errMsg.String
	if resultJSON.Valid && resultJSON.String != "" {
		var res model.Result
		if err := json.Unmarshal([]byte(resultJSON.String), &res); err != nil {
			return nil, eris.Wrapf(err, "store: unmarshal result for run %s", run.ID)
		}
		run.Result = &res
	}
	return &run, nil
}

func marshalResult(res *model.Result) (sql.NullString, error) {
	if res == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
