package tasks

// RegisterAllTasks returns the full set of scheduled task definitions keyed
// by task name.
func RegisterAllTasks(deps TaskDeps) map[string]Definition {
	return map[string]Definition{
		"sql_maintenance": {
			Schedule: deps.Config.Scheduler.SQLMaintenanceCron,
			Run:      NewSQLMaintenanceTask(deps),
		},
		"results_cleanup": {
			Schedule: deps.Config.Scheduler.ResultsCleanupCron,
			Run:      NewResultsCleanupTask(deps),
		},
	}
}
