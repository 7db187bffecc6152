package cdm

import (
	"context"
	"database/sql"
	"fmt"
)

// Cohort definition ids used by the synthetic dataset.
const (
	SeedCohortID      int64 = 1
	SeedOtherCohortID int64 = 2
)

// Seed creates the CDM tables in schema and a cohort table, then loads a small
// synthetic dataset: three persons, of which persons 1 and 2 form cohort 1
// and person 3 forms cohort 2. When rowIDField is set, row ids are
// subject id * 10.
func Seed(ctx context.Context, db *sql.DB, schema, cohortTable string, version Version, rowIDField string) error {
	if err := CreateSchema(ctx, db, schema); err != nil {
		return err
	}
	if err := CreateCohortTable(ctx, db, cohortTable, version, rowIDField); err != nil {
		return err
	}
	steps := []func() error{
		func() error { return InsertConcepts(ctx, db, schema, seedConcepts) },
		func() error { return InsertPersons(ctx, db, schema, seedPersons) },
		func() error { return InsertObservationPeriods(ctx, db, schema, seedObservationPeriods) },
		func() error { return InsertConditionOccurrences(ctx, db, schema, seedConditions) },
		func() error { return InsertCohort(ctx, db, cohortTable, version, rowIDField, seedCohort()) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("cdm: seed: %w", err)
		}
	}
	return nil
}

var seedConcepts = []Concept{
	{ConceptID: 8507, Name: "MALE", Domain: "Gender", Vocabulary: "Gender", ConceptClass: "Gender", Code: "M"},
	{ConceptID: 8532, Name: "FEMALE", Domain: "Gender", Vocabulary: "Gender", ConceptClass: "Gender", Code: "F"},
	{ConceptID: 8527, Name: "White", Domain: "Race", Vocabulary: "Race", ConceptClass: "Race", Code: "5"},
	{ConceptID: 201826, Name: "Type 2 diabetes mellitus", Domain: "Condition", Vocabulary: "SNOMED", ConceptClass: "Clinical Finding", Code: "44054006"},
	{ConceptID: 316866, Name: "Hypertensive disorder", Domain: "Condition", Vocabulary: "SNOMED", ConceptClass: "Clinical Finding", Code: "38341003"},
}

var seedPersons = []Person{
	{PersonID: 1, GenderConceptID: 8507, YearOfBirth: 1980, MonthOfBirth: 3, DayOfBirth: 12, RaceConceptID: 8527},
	{PersonID: 2, GenderConceptID: 8532, YearOfBirth: 1975, MonthOfBirth: 11, DayOfBirth: 2},
	{PersonID: 3, GenderConceptID: 8532, YearOfBirth: 2001, MonthOfBirth: 7, DayOfBirth: 30},
}

var seedObservationPeriods = []ObservationPeriod{
	{ObservationPeriodID: 1, PersonID: 1, StartDate: Date("2015-01-01"), EndDate: Date("2021-12-31")},
	{ObservationPeriodID: 2, PersonID: 2, StartDate: Date("2019-06-01"), EndDate: Date("2022-06-30")},
	{ObservationPeriodID: 3, PersonID: 3, StartDate: Date("2010-01-01"), EndDate: Date("2020-12-31")},
}

var seedConditions = []ConditionOccurrence{
	{ConditionOccurrenceID: 1, PersonID: 1, ConceptID: 201826, StartDate: Date("2019-05-10")},
	{ConditionOccurrenceID: 2, PersonID: 1, ConceptID: 316866, StartDate: Date("2018-01-01")},
	{ConditionOccurrenceID: 3, PersonID: 2, ConceptID: 316866, StartDate: Date("2020-06-01")},
	{ConditionOccurrenceID: 4, PersonID: 2, ConceptID: 201826, StartDate: Date("2020-07-01")},
	{ConditionOccurrenceID: 5, PersonID: 3, ConceptID: 201826, StartDate: Date("2020-01-15")},
}

func seedCohort() []CohortRow {
	rows := []CohortRow{
		{CohortID: SeedCohortID, SubjectID: 1, StartDate: Date("2020-01-01"), EndDate: Date("2020-03-01")},
		{CohortID: SeedCohortID, SubjectID: 2, StartDate: Date("2020-06-15"), EndDate: Date("2020-06-30")},
		{CohortID: SeedOtherCohortID, SubjectID: 3, StartDate: Date("2020-02-01"), EndDate: Date("2020-02-01")},
	}
	for i := range rows {
		rows[i].RowID = rows[i].SubjectID * 10
	}
	return rows
}
