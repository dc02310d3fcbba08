package fhirmodels

// Common FHIR value set and search parameter constants used across the application.

// Search parameters. _getpagesoffset is the HAPI/OpenMRS paging extension.
const (
	ParamCount       = "_count"
	ParamSort        = "_sort"
	ParamSummary     = "_summary"
	ParamPagesOffset = "_getpagesoffset"
	ParamPatient     = "patient"
	ParamDate        = "date"
)

// SummaryData asks the server to omit text narrative from search results.
const SummaryData = "data"
