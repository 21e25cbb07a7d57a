// Package gradestore keeps a journal of the grade batches applied to the portal.
package gradestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"ifsuap/internal/gradestore/db"
	"ifsuap/internal/reconcile"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func isRemote(dsn string) bool {
	return strings.HasPrefix(dsn, "libsql://") ||
		strings.HasPrefix(dsn, "http://") ||
		strings.HasPrefix(dsn, "https://")
}

// Open opens the journal at dsn, which is either a remote libsql url or the
// path of a sqlite file that is created when missing, and ensures its schema.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("a journal path was not specified")
	}

	var database *sql.DB
	if isRemote(dsn) {
		var err error
		database, err = sql.Open("libsql", dsn)
		if err != nil {
			return nil, err
		}
	} else {
		if dsn != ":memory:" {
			_, statErr := os.Stat(dsn)
			if os.IsNotExist(statErr) {
				f, err := os.Create(dsn)
				if err != nil {
					return nil, err
				}
				f.Close()
			}
		}

		var err error
		database, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		// sqlite only supports one writer at a time
		database.SetMaxOpenConns(1)
		if dsn != ":memory:" {
			_, err = database.ExecContext(ctx, "PRAGMA journal_mode=WAL")
			if err != nil {
				database.Close()
				return nil, err
			}
		}
	}

	_, err := database.ExecContext(ctx, db.Schema)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return database, nil
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Run is a grade batch applied to a diary.
type Run struct {
	Id           string              `json:"id"`
	At           time.Time           `json:"at"`
	DisciplineId string              `json:"discipline_id"`
	Step         int                 `json:"step"`
	Outcomes     []reconcile.Outcome `json:"outcomes"`
}

type PushRequest struct {
	Time         time.Time
	DisciplineId string
	Step         int
	Outcomes     []reconcile.Outcome
}

// Push stores a batch and returns the id it was given.
func (s Store) Push(ctx context.Context, req PushRequest) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.ExecContext(
		ctx,
		"insert into grade_run(id, run_at, discipline_id, step) values (?, ?, ?, ?)",
		id, req.Time.Unix(), req.DisciplineId, req.Step,
	)
	if err != nil {
		return "", err
	}

	for i, o := range req.Outcomes {
		_, err = tx.ExecContext(
			ctx,
			`insert into grade_outcome(
				run_id, position, student_id, student_name, concept, status, verified, detail
			) values (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, o.StudentId, o.StudentName, o.Concept, string(o.Status), o.Verified, o.Detail,
		)
		if err != nil {
			return "", err
		}
	}

	err = tx.Commit()
	if err != nil {
		return "", err
	}
	return id, nil
}

type PullRequest struct {
	// DisciplineId restricts the runs to a single diary when it is not empty.
	DisciplineId string
	// Limit is the maximum amount of runs returned, 0 means no limit.
	Limit int
}

// Pull returns the stored runs, most recent first.
func (s Store) Pull(ctx context.Context, req PullRequest) ([]Run, error) {
	query := "select id, run_at, discipline_id, step from grade_run"
	var args []any
	if req.DisciplineId != "" {
		query += " where discipline_id = ?"
		args = append(args, req.DisciplineId)
	}
	query += " order by run_at desc, rowid desc"
	if req.Limit > 0 {
		query += " limit ?"
		args = append(args, req.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	runs := []Run{}
	for rows.Next() {
		var run Run
		var at int64
		err = rows.Scan(&run.Id, &at, &run.DisciplineId, &run.Step)
		if err != nil {
			rows.Close()
			return nil, err
		}
		run.At = time.Unix(at, 0)
		runs = append(runs, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		outcomes, err := s.outcomes(ctx, runs[i].Id)
		if err != nil {
			return nil, err
		}
		runs[i].Outcomes = outcomes
	}
	return runs, nil
}

func (s Store) outcomes(ctx context.Context, runId string) ([]reconcile.Outcome, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select student_id, student_name, concept, status, verified, detail
		from grade_outcome where run_id = ? order by position`,
		runId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	outcomes := []reconcile.Outcome{}
	for rows.Next() {
		var o reconcile.Outcome
		var status string
		err = rows.Scan(&o.StudentId, &o.StudentName, &o.Concept, &status, &o.Verified, &o.Detail)
		if err != nil {
			return nil, err
		}
		o.Status = reconcile.Status(status)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
