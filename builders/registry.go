package builders

import "github.com/viant/featurex/covariate"

// Registrations returns the bundled builders with their settings parsers.
func Registrations() []covariate.Registration {
	return []covariate.Registration{
		{ID: DemographicsID, Builder: Demographics{}, Parse: ParseDemographicsSettings},
		{ID: LooID, Builder: LengthOfObservation{}, Parse: ParseLooSettings},
		{ID: ConditionID, Builder: ConditionOccurrence{}, Parse: ParseConditionSettings},
	}
}

// Register adds the bundled builders to r.
func Register(r *covariate.Registry) error {
	for _, reg := range Registrations() {
		if err := r.Register(reg); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the bundled builders.
func NewRegistry() (*covariate.Registry, error) {
	r := covariate.NewRegistry()
	if err := Register(r); err != nil {
		return nil, err
	}
	return r, nil
}
