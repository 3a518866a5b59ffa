package tomography

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrRunNotFound is returned when a run UUID has no stored row.
var ErrRunNotFound = errors.New("run not found")

// RunRepository persists tomography results. Summary columns are stored
// relationally for listing and trend queries; the full result is a msgpack
// payload.
type RunRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB, log zerolog.Logger) *RunRepository {
	return &RunRepository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}
}

// Save stores a completed run.
func (r *RunRepository) Save(res *Result) error {
	payload, err := msgpack.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding run payload: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO runs (uuid, created_at, source, n_qubits, restarts, seed, fidelity, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		res.RunID,
		res.CreatedAt,
		res.Source,
		res.Config.NQubits,
		res.Restarts,
		int64(res.Seed),
		res.Fidelity,
		payload,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", res.RunID, err)
	}

	r.log.Debug().Str("run_id", res.RunID).Float64("fidelity", res.Fidelity).Msg("Run stored")
	return nil
}

// Get loads a full stored result by UUID.
func (r *RunRepository) Get(runID string) (*Result, error) {
	var payload []byte
	err := r.db.QueryRow(`SELECT payload FROM runs WHERE uuid = ?`, runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", runID, err)
	}

	var res Result
	if err := msgpack.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decoding run %s: %w", runID, err)
	}
	return &res, nil
}

// List returns the most recent run summaries, newest first.
func (r *RunRepository) List(limit int) ([]RunSummary, error) {
	rows, err := r.db.Query(`
		SELECT uuid, created_at, source, n_qubits, restarts, fidelity
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	summaries := []RunSummary{}
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.RunID, &s.CreatedAt, &s.Source, &s.NQubits, &s.Restarts, &s.Fidelity); err != nil {
			return nil, fmt.Errorf("scanning run summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// RecentFidelities returns the fidelities of the most recent runs in
// chronological order, oldest first, for trend analysis.
func (r *RunRepository) RecentFidelities(limit int, source string) ([]float64, error) {
	query := `
		SELECT fidelity FROM (
			SELECT created_at, fidelity
			FROM runs
			WHERE (? = '' OR source = ?)
			ORDER BY created_at DESC
			LIMIT ?
		) ORDER BY created_at ASC
	`
	rows, err := r.db.Query(query, source, source, limit)
	if err != nil {
		return nil, fmt.Errorf("loading fidelities: %w", err)
	}
	defer rows.Close()

	fidelities := []float64{}
	for rows.Next() {
		var f float64
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scanning fidelity: %w", err)
		}
		fidelities = append(fidelities, f)
	}
	return fidelities, rows.Err()
}
