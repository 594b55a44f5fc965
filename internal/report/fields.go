package report

// Field names written to the report.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldQueueStatus = "queue_status"

	FieldLastBuildID  = "last_comp_build_id"
	FieldLastBuildURI = "last_comp_build_uri"

	FieldReportBuildID = "build_report_build_id"
	FieldReportHTML    = "build_report_html"

	FieldRunID            = "test_run_id"
	FieldRunName          = "test_run_name"
	FieldRunState         = "test_run_state"
	FieldRunTotal         = "test_run_total_tests"
	FieldRunPassed        = "test_run_passed_tests"
	FieldRunIncomplete    = "test_run_incomplete_tests"
	FieldRunUnanalyzed    = "test_run_unanalyzed_tests"
	FieldRunNotApplicable = "test_run_not_applicable_tests"
	FieldRunURL           = "test_run_url"
	FieldRunStarted       = "test_run_started_date"
	FieldRunCompleted     = "test_run_completed_date"

	// StatPrefix precedes the outcome label of every statistics field.
	StatPrefix = "test_run_stat"
)

// StatField names the column holding the count for outcome.
func StatField(outcome string) string {
	return StatPrefix + outcome
}

// DefaultFieldset is the fixed column set used when the fieldset is limited.
func DefaultFieldset() []string {
	return []string{
		FieldID,
		FieldName,
		FieldQueueStatus,
		FieldLastBuildID,
		FieldLastBuildURI,
		FieldReportBuildID,
		FieldReportHTML,
		FieldRunID,
		FieldRunName,
		FieldRunState,
		FieldRunTotal,
		FieldRunPassed,
		FieldRunIncomplete,
		FieldRunUnanalyzed,
		FieldRunNotApplicable,
		FieldRunURL,
		FieldRunStarted,
		FieldRunCompleted,
		StatField("Passed"),
		StatField("Failed"),
		StatField("NotExecuted"),
		StatField("Aborted"),
		StatField("Inconclusive"),
	}
}
