// Package metrics records the progress and results of training runs in a SQLite database, so
// that runs can be compared after the fact.
package metrics

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Store is an open metrics database. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Run describes a single invocation of the training loop
type Run struct {
	ID        string
	Phase     string
	Model     string
	WorkDir   string
	Config    string
	StartedAt time.Time
}

// Epoch is the training summary of one epoch
type Epoch struct {
	Epoch        int
	MeanLoss     float64
	Accuracy     float64
	LearningRate float64
	Steps        int
}

// Eval is the result of evaluating on the test set
type Eval struct {
	Epoch    int
	MeanLoss float64
	Accuracy float64
	Correct  int
	Total    int
}

// Prediction is the output of the network for a single evaluated sample
type Prediction struct {
	SampleID  string
	Label     int
	Predicted int
	Scores    []float64
}

// Open opens (or creates) the database at path and makes sure that its tables exist
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open metrics database %q\n", path)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		phase      TEXT NOT NULL,
		model      TEXT DEFAULT '',
		work_dir   TEXT DEFAULT '',
		config     TEXT DEFAULT '',
		started_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS epochs (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id        TEXT NOT NULL,
		epoch         INTEGER NOT NULL,
		mean_loss     REAL NOT NULL,
		accuracy      REAL NOT NULL,
		learning_rate REAL NOT NULL,
		steps         INTEGER NOT NULL,
		recorded_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_epochs_run ON epochs(run_id);

	CREATE TABLE IF NOT EXISTS evals (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL,
		epoch       INTEGER NOT NULL,
		mean_loss   REAL NOT NULL,
		accuracy    REAL NOT NULL,
		correct     INTEGER NOT NULL,
		total       INTEGER NOT NULL,
		recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_evals_run ON evals(run_id);

	CREATE TABLE IF NOT EXISTS predictions (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		eval_id   INTEGER NOT NULL,
		sample_id TEXT NOT NULL,
		label     INTEGER NOT NULL,
		predicted INTEGER NOT NULL,
		scores    TEXT DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_eval ON predictions(eval_id);
	`
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "Can't create metrics tables\n")
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records the start of a run
func (s *Store) StartRun(r Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, phase, model, work_dir, config, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Phase, r.Model, r.WorkDir, r.Config, r.StartedAt,
	)
	return errors.Wrapf(err, "Can't record run %q\n", r.ID)
}

// RecordEpoch records the training summary of an epoch
func (s *Store) RecordEpoch(runID string, e Epoch) error {
	_, err := s.db.Exec(
		`INSERT INTO epochs (run_id, epoch, mean_loss, accuracy, learning_rate, steps) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, e.Epoch, e.MeanLoss, e.Accuracy, e.LearningRate, e.Steps,
	)
	return errors.Wrapf(err, "Can't record epoch %d\n", e.Epoch)
}

// RecordEval records an evaluation along with its per-sample predictions, in one transaction
func (s *Store) RecordEval(runID string, e Eval, preds []Prediction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrapf(err, "Can't record evaluation\n")
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO evals (run_id, epoch, mean_loss, accuracy, correct, total) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, e.Epoch, e.MeanLoss, e.Accuracy, e.Correct, e.Total,
	)
	if err != nil {
		return errors.Wrapf(err, "Can't record evaluation\n")
	}

	evalID, err := res.LastInsertId()
	if err != nil {
		return errors.Wrapf(err, "Can't record evaluation\n")
	}

	stmt, err := tx.Prepare(`INSERT INTO predictions (eval_id, sample_id, label, predicted, scores) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrapf(err, "Can't record predictions\n")
	}
	defer stmt.Close()

	for _, p := range preds {
		if _, err = stmt.Exec(evalID, p.SampleID, p.Label, p.Predicted, formatScores(p.Scores)); err != nil {
			return errors.Wrapf(err, "Can't record prediction for %q\n", p.SampleID)
		}
	}

	return errors.Wrapf(tx.Commit(), "Can't record evaluation\n")
}

// Epochs returns the epoch summaries of a run, in the order they were recorded
func (s *Store) Epochs(runID string) ([]Epoch, error) {
	rows, err := s.db.Query(
		`SELECT epoch, mean_loss, accuracy, learning_rate, steps FROM epochs WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't query epochs\n")
	}
	defer rows.Close()

	var es []Epoch
	for rows.Next() {
		var e Epoch
		if err = rows.Scan(&e.Epoch, &e.MeanLoss, &e.Accuracy, &e.LearningRate, &e.Steps); err != nil {
			return nil, errors.Wrapf(err, "Can't read epoch\n")
		}
		es = append(es, e)
	}

	return es, rows.Err()
}

// Evals returns the evaluations of a run, in the order they were recorded
func (s *Store) Evals(runID string) ([]Eval, error) {
	rows, err := s.db.Query(
		`SELECT epoch, mean_loss, accuracy, correct, total FROM evals WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't query evaluations\n")
	}
	defer rows.Close()

	var es []Eval
	for rows.Next() {
		var e Eval
		if err = rows.Scan(&e.Epoch, &e.MeanLoss, &e.Accuracy, &e.Correct, &e.Total); err != nil {
			return nil, errors.Wrapf(err, "Can't read evaluation\n")
		}
		es = append(es, e)
	}

	return es, rows.Err()
}

// Predictions returns the predictions recorded with the most recent evaluation of the given
// epoch in a run
func (s *Store) Predictions(runID string, epoch int) ([]Prediction, error) {
	rows, err := s.db.Query(
		`SELECT p.sample_id, p.label, p.predicted, p.scores FROM predictions p
		 WHERE p.eval_id = (SELECT MAX(id) FROM evals WHERE run_id = ? AND epoch = ?)
		 ORDER BY p.id`,
		runID, epoch,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't query predictions\n")
	}
	defer rows.Close()

	var ps []Prediction
	for rows.Next() {
		var p Prediction
		var scores string
		if err = rows.Scan(&p.SampleID, &p.Label, &p.Predicted, &scores); err != nil {
			return nil, errors.Wrapf(err, "Can't read prediction\n")
		}

		if p.Scores, err = parseScores(scores); err != nil {
			return nil, errors.Wrapf(err, "Can't read scores of %q\n", p.SampleID)
		}
		ps = append(ps, p)
	}

	return ps, rows.Err()
}
