// Package service contains the application use cases around sleep reports.
// It orchestrates interactions between the analyzer, the report store
// (defined in internal/store), the task runner and the event emitter.
//
// The tracking controller hands every finished session to ReportService,
// which scores it in the background, persists the resulting report and
// announces it with an analysis.completed event. The HTTP API reads reports
// back and can ask for a failed report to be scored again.
//
// Services receive their dependencies through constructor injection and
// depend on interfaces, never on a specific storage or scoring backend.
package service
