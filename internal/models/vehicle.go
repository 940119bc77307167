package models

// CanonicalVehicle is a read-only catalog row. The catalog store owns it.
type CanonicalVehicle struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// StructuredQuery is a Year/Make/Model/Submodel descriptor.
type StructuredQuery struct {
	Year     *int    `json:"year,omitempty"`
	Make     string  `json:"make"`
	Model    string  `json:"model"`
	Submodel *string `json:"submodel,omitempty"`
}

// HasYear reports whether the query carries a usable year.
func (q StructuredQuery) HasYear() bool {
	return q.Year != nil && *q.Year > 0
}

// SubmodelValue returns the submodel or an empty string.
func (q StructuredQuery) SubmodelValue() string {
	if q.Submodel == nil {
		return ""
	}
	return *q.Submodel
}

// YearRange is an inclusive model-year window.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether year falls inside the window.
func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}
