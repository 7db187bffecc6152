package covariate

// Assemble merges results into one Combined value. Covariates, refs and
// analyses are concatenated in result order; a covariate id emitted by two
// results fails with *CovariateIDCollisionError. Every result contributes a
// Provenance entry, in order, even when it produced no covariates.
func Assemble(results []Result) (*Combined, error) {
	combined := &Combined{MetaData: make([]Provenance, 0, len(results))}
	owner := make(map[int64]string)
	analyses := make(map[int]bool)

	for _, r := range results {
		var meta map[string]any
		if r.Data != nil {
			meta = r.Data.MetaData
		}
		combined.MetaData = append(combined.MetaData, Provenance{Builder: r.Label, MetaData: meta})
		if r.Data == nil {
			continue
		}

		claimed := make(map[int64]bool, len(r.Data.Refs))
		claim := func(id int64) error {
			if claimed[id] {
				return nil
			}
			if first, ok := owner[id]; ok {
				return &CovariateIDCollisionError{CovariateID: id, First: first, Second: r.Label}
			}
			claimed[id] = true
			return nil
		}
		for _, ref := range r.Data.Refs {
			if err := claim(ref.CovariateID); err != nil {
				return nil, err
			}
		}
		for _, c := range r.Data.Covariates {
			if err := claim(c.CovariateID); err != nil {
				return nil, err
			}
		}
		for id := range claimed {
			owner[id] = r.Label
		}

		combined.Covariates = append(combined.Covariates, r.Data.Covariates...)
		combined.Refs = append(combined.Refs, r.Data.Refs...)
		for _, a := range r.Data.Analyses {
			if analyses[a.AnalysisID] {
				continue
			}
			analyses[a.AnalysisID] = true
			combined.Analyses = append(combined.Analyses, a)
		}
	}
	return combined, nil
}
