package workflows

import (
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

func workflowOptions() workflow.RegisterOptions {
	return workflow.RegisterOptions{Name: SOSWorkflowName}
}

// Register adds the SOS workflow and its activities to a worker.
func Register(w worker.Registry, acts *SOSActivities) {
	w.RegisterWorkflowWithOptions(SOSWorkflow, workflowOptions())
	w.RegisterActivity(acts)
}
