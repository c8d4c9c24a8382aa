package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/models"
	"github.com/myrjola/casefile/internal/sqlite"
	"log/slog"
	"time"
)

// CaseRepository keeps one JSON record per case.
//
// Mutations go through [CaseRepository.Update] which holds a per-case lock for the read-modify-write cycle and
// guards the write with a version compare-and-swap so that writers in other processes can't silently overwrite it.
type CaseRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
	locks  *keyedMutex
}

func NewCaseRepository(dbs *sqlite.Database, logger *slog.Logger) *CaseRepository {
	return &CaseRepository{
		dbs:    dbs,
		logger: logger.With(slog.String("source", "CaseRepository")),
		locks:  newKeyedMutex(),
	}
}

type caseRow struct {
	ID             string `db:"id"`
	InvestigatorID string `db:"investigator_id"`
	Version        int64  `db:"version"`
	Submitted      string `db:"submitted"`
	Updated        string `db:"updated"`
	Data           string `db:"data"`
}

func (row caseRow) toCase() (*models.Case, error) {
	var c models.Case
	if err := json.Unmarshal([]byte(row.Data), &c); err != nil {
		return nil, errors.Wrap(models.Classify(models.ErrStoreIO, err), "decode case record",
			slog.String("case_id", row.ID))
	}
	c.ID = row.ID
	c.InvestigatorID = row.InvestigatorID
	c.Version = row.Version
	return &c, nil
}

// timestampLayout has a fixed width so that the stored timestamps sort chronologically as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func newCaseRow(c *models.Case, now time.Time) (caseRow, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return caseRow{}, errors.Wrap(err, "encode case record", slog.String("case_id", c.ID))
	}
	return caseRow{
		ID:             c.ID,
		InvestigatorID: c.InvestigatorID,
		Version:        c.Version,
		Submitted:      c.SubmittedAt.UTC().Format(timestampLayout),
		Updated:        now.UTC().Format(timestampLayout),
		Data:           string(data),
	}, nil
}

// Get returns the case or an error matching [models.ErrNotFound] when there is no such case.
func (r *CaseRepository) Get(ctx context.Context, id string) (*models.Case, error) {
	var row caseRow
	stmt := `SELECT id, investigator_id, version, submitted, updated, data FROM cases WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &row, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(models.ErrNotFound, "case not found", slog.String("case_id", id))
		}
		return nil, errors.Wrap(models.Classify(models.ErrStoreIO, err), "read case", slog.String("case_id", id))
	}
	return row.toCase()
}

// ListByInvestigator returns the cases of the investigator, most recently submitted first.
func (r *CaseRepository) ListByInvestigator(ctx context.Context, investigatorID string) ([]models.Case, error) {
	var rows []caseRow
	stmt := `SELECT id, investigator_id, version, submitted, updated, data
FROM cases
WHERE investigator_id = ?
ORDER BY submitted DESC, id DESC`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &rows, stmt, investigatorID); err != nil {
		return nil, errors.Wrap(models.Classify(models.ErrStoreIO, err), "list cases")
	}
	cases := make([]models.Case, 0, len(rows))
	for _, row := range rows {
		c, err := row.toCase()
		if err != nil {
			return nil, err
		}
		cases = append(cases, *c)
	}
	return cases, nil
}

// Create inserts a new case. It fails with [models.ErrConflict] when the identifier is taken.
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	c.Version = 1
	row, err := newCaseRow(c, time.Now())
	if err != nil {
		return err
	}
	stmt := `INSERT INTO cases (id, investigator_id, version, submitted, updated, data)
VALUES (:id, :investigator_id, :version, :submitted, :updated, :data)
ON CONFLICT (id) DO NOTHING`
	res, err := r.dbs.ReadWrite.NamedExecContext(ctx, stmt, row)
	if err != nil {
		return errors.Wrap(models.Classify(models.ErrStoreIO, err), "insert case", slog.String("case_id", c.ID))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrap(models.ErrConflict, "case already exists", slog.String("case_id", c.ID))
	}
	return nil
}

// Upsert writes c whether or not it exists, overwriting any concurrent change. Prefer Update for mutations.
func (r *CaseRepository) Upsert(ctx context.Context, c *models.Case) error {
	row, err := newCaseRow(c, time.Now())
	if err != nil {
		return err
	}
	stmt := `INSERT INTO cases (id, investigator_id, version, submitted, updated, data)
VALUES (?, ?, 1, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET data    = excluded.data,
                               updated = excluded.updated,
                               version = cases.version + 1
RETURNING version`
	if err = r.dbs.ReadWrite.GetContext(ctx, &c.Version, stmt,
		row.ID, row.InvestigatorID, row.Submitted, row.Updated, row.Data); err != nil {
		return errors.Wrap(models.Classify(models.ErrStoreIO, err), "upsert case", slog.String("case_id", c.ID))
	}
	return nil
}

// Update applies mutate to the stored case and writes the result back. Nothing is written when mutate returns an
// error, which is passed through unchanged. A concurrent write from outside this repository fails the update with
// [models.ErrConflict].
func (r *CaseRepository) Update(
	ctx context.Context,
	id string,
	mutate func(c *models.Case) error,
) (*models.Case, error) {
	unlock := r.locks.Lock(id)
	defer unlock()

	c, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	readVersion := c.Version
	if err = mutate(c); err != nil {
		return nil, err
	}
	c.ID = id

	row, err := newCaseRow(c, time.Now())
	if err != nil {
		return nil, err
	}
	stmt := `UPDATE cases
SET data = ?, updated = ?, version = version + 1
WHERE id = ? AND version = ?`
	res, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, row.Data, row.Updated, id, readVersion)
	if err != nil {
		return nil, errors.Wrap(models.Classify(models.ErrStoreIO, err), "update case", slog.String("case_id", id))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(models.Classify(models.ErrStoreIO, err), "rows affected", slog.String("case_id", id))
	}
	if n == 0 {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "lost case update race",
			slog.String("case_id", id), slog.Int64("version", readVersion))
		return nil, errors.Wrap(models.ErrConflict, "case changed concurrently",
			slog.String("case_id", id), slog.Int64("version", readVersion))
	}
	c.Version = readVersion + 1
	return c, nil
}
