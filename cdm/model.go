package cdm

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/viant/featurex/sqlrender"
)

// DateLayout is the text form of CDM dates.
const DateLayout = "2006-01-02"

// Person mirrors a row of the person table.
type Person struct {
	PersonID           int64
	GenderConceptID    int64
	YearOfBirth        int
	MonthOfBirth       int
	DayOfBirth         int
	RaceConceptID      int64
	EthnicityConceptID int64
}

// ObservationPeriod mirrors a row of observation_period.
type ObservationPeriod struct {
	ObservationPeriodID int64
	PersonID            int64
	StartDate           time.Time
	EndDate             time.Time
}

// ConditionOccurrence mirrors a row of condition_occurrence.
type ConditionOccurrence struct {
	ConditionOccurrenceID int64
	PersonID              int64
	ConceptID             int64
	StartDate             time.Time
	EndDate               time.Time
}

// Concept mirrors a row of the concept table.
type Concept struct {
	ConceptID    int64
	Name         string
	Domain       string
	Vocabulary   string
	ConceptClass string
	Code         string
}

// CohortRow is one (subject, index date) entry of a cohort table. RowID is
// only written when the table carries a dedicated row id column.
type CohortRow struct {
	CohortID  int64
	SubjectID int64
	StartDate time.Time
	EndDate   time.Time
	RowID     int64
}

// Date parses a CDM date, panicking on malformed input. Intended for
// literals in seed data and tests.
func Date(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(fmt.Sprintf("cdm: invalid date %q", s))
	}
	return d
}

func formatDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(DateLayout)
}

// InsertPersons inserts persons into schema.person.
func InsertPersons(ctx context.Context, db *sql.DB, schema string, persons []Person) error {
	stmt := `INSERT INTO ` + sqlrender.Qualify(schema, PersonTable) + `(person_id, gender_concept_id, year_of_birth, month_of_birth, day_of_birth, race_concept_id, ethnicity_concept_id) VALUES(?, ?, ?, ?, ?, ?, ?)`
	return insertRows(ctx, db, stmt, len(persons), func(i int) []any {
		p := persons[i]
		return []any{p.PersonID, p.GenderConceptID, p.YearOfBirth, p.MonthOfBirth, p.DayOfBirth, p.RaceConceptID, p.EthnicityConceptID}
	})
}

// InsertObservationPeriods inserts periods into schema.observation_period.
func InsertObservationPeriods(ctx context.Context, db *sql.DB, schema string, periods []ObservationPeriod) error {
	stmt := `INSERT INTO ` + sqlrender.Qualify(schema, ObservationPeriodTable) + `(observation_period_id, person_id, observation_period_start_date, observation_period_end_date) VALUES(?, ?, ?, ?)`
	return insertRows(ctx, db, stmt, len(periods), func(i int) []any {
		p := periods[i]
		return []any{p.ObservationPeriodID, p.PersonID, formatDate(p.StartDate), formatDate(p.EndDate)}
	})
}

// InsertConditionOccurrences inserts rows into schema.condition_occurrence.
func InsertConditionOccurrences(ctx context.Context, db *sql.DB, schema string, conditions []ConditionOccurrence) error {
	stmt := `INSERT INTO ` + sqlrender.Qualify(schema, ConditionOccurrenceTable) + `(condition_occurrence_id, person_id, condition_concept_id, condition_start_date, condition_end_date) VALUES(?, ?, ?, ?, ?)`
	return insertRows(ctx, db, stmt, len(conditions), func(i int) []any {
		c := conditions[i]
		return []any{c.ConditionOccurrenceID, c.PersonID, c.ConceptID, formatDate(c.StartDate), formatDate(c.EndDate)}
	})
}

// InsertConcepts inserts vocabulary concepts into schema.concept.
func InsertConcepts(ctx context.Context, db *sql.DB, schema string, concepts []Concept) error {
	stmt := `INSERT INTO ` + sqlrender.Qualify(schema, ConceptTable) + `(concept_id, concept_name, domain_id, vocabulary_id, concept_class_id, concept_code) VALUES(?, ?, ?, ?, ?, ?)`
	return insertRows(ctx, db, stmt, len(concepts), func(i int) []any {
		c := concepts[i]
		return []any{c.ConceptID, c.Name, c.Domain, c.Vocabulary, c.ConceptClass, c.Code}
	})
}

// InsertCohort inserts rows into a cohort table created by CreateCohortTable
// with the same version and rowIDField.
func InsertCohort(ctx context.Context, db *sql.DB, table string, version Version, rowIDField string, rows []CohortRow) error {
	if err := sqlrender.CheckIdentifier(table); err != nil {
		return err
	}
	withRowID := rowIDField != "" && rowIDField != DefaultRowIDField
	cols := version.CohortIDColumn() + ", subject_id, cohort_start_date, cohort_end_date"
	marks := "?, ?, ?, ?"
	if withRowID {
		if err := sqlrender.CheckIdentifier(rowIDField); err != nil {
			return err
		}
		cols += ", " + rowIDField
		marks += ", ?"
	}
	stmt := fmt.Sprintf(`INSERT INTO %s(%s) VALUES(%s)`, table, cols, marks)
	return insertRows(ctx, db, stmt, len(rows), func(i int) []any {
		r := rows[i]
		args := []any{r.CohortID, r.SubjectID, formatDate(r.StartDate), formatDate(r.EndDate)}
		if withRowID {
			args = append(args, r.RowID)
		}
		return args
	})
}

func insertRows(ctx context.Context, db *sql.DB, stmt string, n int, args func(i int) []any) error {
	if db == nil {
		return fmt.Errorf("cdm: db is nil")
	}
	if n == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return err
	}
	defer prepared.Close()

	for i := 0; i < n; i++ {
		if _, err := prepared.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("cdm: insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}
