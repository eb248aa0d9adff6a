package validation

// CalculationRequest mirrors the fields needed for estimate validation.
type CalculationRequest struct {
	Lat       *float64
	Lon       *float64
	PeakPower *float64
	Loss      *float64
}

// ValidateCalculationRequest validates the physical parameters of an estimate.
func ValidateCalculationRequest(req CalculationRequest) []FieldError {
	var errs []FieldError

	switch {
	case req.Lat == nil:
		errs = append(errs, FieldError{Field: "lat", Message: "lat is required"})
	case *req.Lat < -90 || *req.Lat > 90:
		errs = append(errs, FieldError{Field: "lat", Message: "lat must be between -90 and 90"})
	}

	switch {
	case req.Lon == nil:
		errs = append(errs, FieldError{Field: "lon", Message: "lon is required"})
	case *req.Lon < -180 || *req.Lon > 180:
		errs = append(errs, FieldError{Field: "lon", Message: "lon must be between -180 and 180"})
	}

	switch {
	case req.PeakPower == nil:
		errs = append(errs, FieldError{Field: "peakpower", Message: "peakpower is required"})
	case !(*req.PeakPower > 0):
		errs = append(errs, FieldError{Field: "peakpower", Message: "peakpower must be greater than 0"})
	}

	switch {
	case req.Loss == nil:
		errs = append(errs, FieldError{Field: "loss", Message: "loss is required"})
	case *req.Loss < 0 || *req.Loss > 100:
		errs = append(errs, FieldError{Field: "loss", Message: "loss must be between 0 and 100"})
	}

	return errs
}
