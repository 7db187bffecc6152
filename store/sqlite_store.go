package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/viant/featurex/covariate"
	"k8s.io/utils/ptr"
)

// SQLiteStore keeps a combined result in four tables: covariates,
// covariate_ref, analysis_ref and meta_data.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed Store, ensuring its schema exists.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save replaces the stored result with c in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, c *covariate.Combined) error {
	if c == nil {
		return fmt.Errorf("store: Save called with nil result")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{covariatesTable, covariateRefTable, analysisRefTable, metaDataTable} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("store: clear %s: %w", table, err)
		}
	}

	if err := insert(ctx, tx, `INSERT INTO covariates(row_id, covariate_id, covariate_value) VALUES(?, ?, ?)`, len(c.Covariates), func(i int) ([]any, error) {
		cov := c.Covariates[i]
		return []any{cov.RowID, cov.CovariateID, cov.Value}, nil
	}); err != nil {
		return err
	}
	if err := insert(ctx, tx, `INSERT INTO covariate_ref(covariate_id, covariate_name, analysis_id, concept_id) VALUES(?, ?, ?, ?)`, len(c.Refs), func(i int) ([]any, error) {
		r := c.Refs[i]
		return []any{r.CovariateID, r.Name, r.AnalysisID, r.ConceptID}, nil
	}); err != nil {
		return err
	}
	if err := insert(ctx, tx, `INSERT INTO analysis_ref(analysis_id, analysis_name, domain_id, start_day, end_day, is_binary, missing_means_zero) VALUES(?, ?, ?, ?, ?, ?, ?)`, len(c.Analyses), func(i int) ([]any, error) {
		a := c.Analyses[i]
		return []any{a.AnalysisID, a.Name, a.Domain, nullableInt(a.StartDay), nullableInt(a.EndDay), a.IsBinary, a.MissingMeansZero}, nil
	}); err != nil {
		return err
	}
	if err := insert(ctx, tx, `INSERT INTO meta_data(position, builder, meta) VALUES(?, ?, ?)`, len(c.MetaData), func(i int) ([]any, error) {
		p := c.MetaData[i]
		var meta any
		if p.MetaData != nil {
			data, err := json.Marshal(p.MetaData)
			if err != nil {
				return nil, fmt.Errorf("store: encode metadata of %s: %w", p.Builder, err)
			}
			meta = string(data)
		}
		return []any{i, p.Builder, meta}, nil
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// Load reads the stored result back in the order it was saved.
func (s *SQLiteStore) Load(ctx context.Context) (*covariate.Combined, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	out := &covariate.Combined{}

	if err := scan(ctx, s.db, `SELECT row_id, covariate_id, covariate_value FROM covariates ORDER BY rowid`, func(rows *sql.Rows) error {
		var c covariate.Covariate
		if err := rows.Scan(&c.RowID, &c.CovariateID, &c.Value); err != nil {
			return err
		}
		out.Covariates = append(out.Covariates, c)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := scan(ctx, s.db, `SELECT covariate_id, covariate_name, analysis_id, concept_id FROM covariate_ref ORDER BY rowid`, func(rows *sql.Rows) error {
		var (
			r    covariate.Ref
			name sql.NullString
		)
		if err := rows.Scan(&r.CovariateID, &name, &r.AnalysisID, &r.ConceptID); err != nil {
			return err
		}
		r.Name = name.String
		out.Refs = append(out.Refs, r)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := scan(ctx, s.db, `SELECT analysis_id, analysis_name, domain_id, start_day, end_day, is_binary, missing_means_zero FROM analysis_ref ORDER BY rowid`, func(rows *sql.Rows) error {
		var (
			a                covariate.AnalysisRef
			name, domain     sql.NullString
			startDay, endDay sql.NullInt64
		)
		if err := rows.Scan(&a.AnalysisID, &name, &domain, &startDay, &endDay, &a.IsBinary, &a.MissingMeansZero); err != nil {
			return err
		}
		a.Name, a.Domain = name.String, domain.String
		a.StartDay, a.EndDay = intPtr(startDay), intPtr(endDay)
		out.Analyses = append(out.Analyses, a)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := scan(ctx, s.db, `SELECT builder, meta FROM meta_data ORDER BY position`, func(rows *sql.Rows) error {
		var (
			p    covariate.Provenance
			meta sql.NullString
		)
		if err := rows.Scan(&p.Builder, &meta); err != nil {
			return err
		}
		if meta.Valid {
			if err := json.Unmarshal([]byte(meta.String), &p.MetaData); err != nil {
				return fmt.Errorf("store: decode metadata of %s: %w", p.Builder, err)
			}
		}
		out.MetaData = append(out.MetaData, p)
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func insert(ctx context.Context, tx *sql.Tx, stmt string, n int, args func(i int) ([]any, error)) error {
	if n == 0 {
		return nil
	}
	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return err
	}
	defer prepared.Close()

	for i := 0; i < n; i++ {
		values, err := args(i)
		if err != nil {
			return err
		}
		if _, err := prepared.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("store: insert row %d: %w", i, err)
		}
	}
	return nil
}

func scan(ctx context.Context, db *sql.DB, query string, fn func(rows *sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return ptr.To(int(v.Int64))
}

// Ensure SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)
