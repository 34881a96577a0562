package homework

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homework_runs_created_total",
		Help: "Homework assistance runs created.",
	})

	StepsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homework_steps_completed_total",
		Help: "Step executions by step name and terminal state.",
	}, []string{"step", "state"})

	TasksExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homework_tasks_extracted_total",
		Help: "Task rows committed by the extraction step.",
	})

	UploadsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homework_uploads_finished_total",
		Help: "Homework uploads by final media state.",
	}, []string{"state"})
)
