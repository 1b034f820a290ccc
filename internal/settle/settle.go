// Package settle runs independent tasks concurrently and waits for every
// one of them to finish, successful or not. This mirrors settle-all
// semantics: one failing or slow task never cancels or masks the others.
package settle

import (
	"context"
	"fmt"
	"sync"
)

// Task is one unit of work in a fan-out batch.
type Task struct {
	Name string
	Run  func(ctx context.Context) (interface{}, error)
}

// Outcome is the settled result of one task. Exactly one of Value and Err
// is meaningful; Err carries recovered panics as ordinary errors.
type Outcome struct {
	Name  string
	Value interface{}
	Err   error
}

// Fulfilled reports whether the task completed without error.
func (o Outcome) Fulfilled() bool { return o.Err == nil }

// All launches every task concurrently and blocks until each has settled.
// Outcomes are returned in task order. A panic inside a task is recovered
// into its outcome so sibling tasks still settle.
func All(ctx context.Context, tasks []Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func(i int, task Task) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = Outcome{Name: task.Name, Err: fmt.Errorf("task %s panicked: %v", task.Name, r)}
				}
			}()
			value, err := task.Run(ctx)
			outcomes[i] = Outcome{Name: task.Name, Value: value, Err: err}
		}(i, task)
	}
	wg.Wait()
	return outcomes
}
