package analyzer

import "errors"

var (
	// ErrFlowNotFound is returned when a flow id does not exist in the workspace.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrNoSource is returned by operations that load the workspace
	// when the analyzer was built without a Source.
	ErrNoSource = errors.New("no workspace source configured")

	// ErrAnalysisInFlight is returned by Scheduler.Trigger while a pass is running.
	ErrAnalysisInFlight = errors.New("analysis already in flight")
)
