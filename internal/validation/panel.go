package validation

import "strings"

// CreatePanelRequest mirrors the fields needed for create panel model validation.
type CreatePanelRequest struct {
	Name         string
	Capacity     float64
	Efficiency   float64
	Manufacturer string
	Type         string
}

// ValidateCreatePanelRequest validates the fields of a create panel model request.
func ValidateCreatePanelRequest(req CreatePanelRequest) []FieldError {
	var errs []FieldError
	errs = appendText(errs, "name", req.Name)
	errs = appendCapacity(errs, req.Capacity)
	errs = appendEfficiency(errs, req.Efficiency)
	errs = appendText(errs, "manufacturer", req.Manufacturer)
	errs = appendText(errs, "type", req.Type)
	return errs
}

// UpdatePanelRequest mirrors the fields needed for update panel model validation.
// Nil fields are not validated; at least one must be set.
type UpdatePanelRequest struct {
	Name         *string
	Capacity     *float64
	Efficiency   *float64
	Manufacturer *string
	Type         *string
}

// ValidateUpdatePanelRequest validates only non-nil fields on an update request.
func ValidateUpdatePanelRequest(req UpdatePanelRequest) []FieldError {
	if req.Name == nil && req.Capacity == nil && req.Efficiency == nil &&
		req.Manufacturer == nil && req.Type == nil {
		return []FieldError{{Field: "body", Message: "at least one field must be provided"}}
	}

	var errs []FieldError
	if req.Name != nil {
		errs = appendText(errs, "name", *req.Name)
	}
	if req.Capacity != nil {
		errs = appendCapacity(errs, *req.Capacity)
	}
	if req.Efficiency != nil {
		errs = appendEfficiency(errs, *req.Efficiency)
	}
	if req.Manufacturer != nil {
		errs = appendText(errs, "manufacturer", *req.Manufacturer)
	}
	if req.Type != nil {
		errs = appendText(errs, "type", *req.Type)
	}
	return errs
}

func appendText(errs []FieldError, field, value string) []FieldError {
	value = strings.TrimSpace(value)
	if value == "" {
		return append(errs, FieldError{Field: field, Message: field + " is required"})
	}
	if len(value) > 255 {
		return append(errs, FieldError{Field: field, Message: field + " must be at most 255 characters"})
	}
	return errs
}

func appendCapacity(errs []FieldError, capacity float64) []FieldError {
	if !(capacity > 0) {
		return append(errs, FieldError{Field: "capacity", Message: "capacity must be greater than 0"})
	}
	return errs
}

func appendEfficiency(errs []FieldError, efficiency float64) []FieldError {
	if !(efficiency > 0 && efficiency <= 100) {
		return append(errs, FieldError{Field: "efficiency", Message: "efficiency must be greater than 0 and at most 100"})
	}
	return errs
}
