package service

// TrackedTrips exposes the number of trips with a running budget pass to the
// external test package.
var TrackedTrips = (*AnalysisService).tracked
