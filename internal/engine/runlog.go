package engine

import (
	"context"
	"fmt"
	"time"

	"zipier/internal/store"
)

// RunStatus is the outcome recorded for an action run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"  // webhook answered outside 2xx
	RunSkipped   RunStatus = "skipped" // condition evaluated to false
	RunError     RunStatus = "error"   // nothing usable came back
)

// ActionRun is one row of the _action_runs log.
type ActionRun struct {
	ID           string    `json:"id"`
	ActionID     string    `json:"action_id"`
	ZipID        string    `json:"zip_id"`
	Method       string    `json:"method"`
	URL          string    `json:"url"`
	Status       RunStatus `json:"status"`
	StatusCode   int       `json:"status_code,omitempty"`
	ResponseBody string    `json:"response_body,omitempty"`
	Error        string    `json:"error,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// RecordRun inserts a row into _action_runs.
func RecordRun(ctx context.Context, q store.Querier, dialect store.Dialect, run *ActionRun) error {
	pb := dialect.NewParamBuilder()
	_, err := store.Exec(ctx, q,
		fmt.Sprintf(`INSERT INTO _action_runs (id, action_id, zip_id, method, url, status, status_code,
		 response_body, error, duration_ms)
		 VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)`,
			pb.Add(run.ID), pb.Add(run.ActionID), pb.Add(run.ZipID), pb.Add(run.Method), pb.Add(run.URL),
			pb.Add(string(run.Status)), pb.Add(run.StatusCode), pb.Add(run.ResponseBody), pb.Add(run.Error),
			pb.Add(run.DurationMs)),
		pb.Params()...)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs of an action, newest first.
func ListRuns(ctx context.Context, q store.Querier, dialect store.Dialect, actionID string, limit int) ([]*ActionRun, error) {
	pb := dialect.NewParamBuilder()
	rows, err := store.QueryRows(ctx, q,
		fmt.Sprintf(`SELECT id, action_id, zip_id, method, url, status, status_code, response_body, error,
		 duration_ms, created_at
		 FROM _action_runs WHERE action_id = %s ORDER BY created_at DESC LIMIT %s`,
			pb.Add(actionID), pb.Add(limit)),
		pb.Params()...)
	if err != nil {
		return nil, fmt.Errorf("list runs for %s: %w", actionID, err)
	}

	runs := make([]*ActionRun, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, &ActionRun{
			ID:           fmt.Sprint(row["id"]),
			ActionID:     fmt.Sprint(row["action_id"]),
			ZipID:        fmt.Sprint(row["zip_id"]),
			Method:       fmt.Sprint(row["method"]),
			URL:          fmt.Sprint(row["url"]),
			Status:       RunStatus(fmt.Sprint(row["status"])),
			StatusCode:   int(toInt64(row["status_code"])),
			ResponseBody: fmt.Sprint(row["response_body"]),
			Error:        fmt.Sprint(row["error"]),
			DurationMs:   toInt64(row["duration_ms"]),
			CreatedAt:    store.TimeValue(row["created_at"]),
		})
	}
	return runs, nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
