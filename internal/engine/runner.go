package engine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"zipier/internal/metadata"
	"zipier/internal/store"
	"zipier/internal/webhook"
)

// RunOutcome is the result of running one action. Response is the decoded
// webhook response for successful runs.
type RunOutcome struct {
	Run      *ActionRun `json:"run"`
	Response any        `json:"response,omitempty"`
}

// Runner fires webhook actions and records every attempt in the run log.
type Runner struct {
	store     *store.Store
	registry  *metadata.Registry
	compiler  *webhook.Compiler
	evaluator ConditionEvaluator
	log       *zap.Logger
}

func NewRunner(s *store.Store, reg *metadata.Registry, compiler *webhook.Compiler, log *zap.Logger) *Runner {
	return &Runner{
		store:     s,
		registry:  reg,
		compiler:  compiler,
		evaluator: NewExprLangEvaluator(),
		log:       log.Named("runner"),
	}
}

// RunAction fires a single action with the given trigger input.
func (r *Runner) RunAction(ctx context.Context, actionID string, input any) (*RunOutcome, error) {
	action := r.registry.GetAction(actionID)
	if action == nil {
		return nil, NotFoundError("Action", actionID)
	}
	return r.run(ctx, r.registry.GetZip(action.ZipID), action, input)
}

// RunZip fires the zip's actions in position order. It stops at the first
// action that fails and returns the outcomes gathered so far with the error.
func (r *Runner) RunZip(ctx context.Context, zipID string, input any) ([]*RunOutcome, error) {
	zip := r.registry.GetZip(zipID)
	if zip == nil {
		return nil, NotFoundError("Zip", zipID)
	}
	if !zip.Active {
		return nil, ConflictError("Zip is inactive: " + zip.Title)
	}

	actions := r.registry.ActionsForZip(zipID)
	outcomes := make([]*RunOutcome, 0, len(actions))
	for _, action := range actions {
		outcome, err := r.run(ctx, zip, action, input)
		if outcome != nil {
			outcomes = append(outcomes, outcome)
		}
		if err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

func (r *Runner) run(ctx context.Context, zip *metadata.Zip, action *metadata.Action, input any) (*RunOutcome, error) {
	start := time.Now()
	run := &ActionRun{
		ID:        uuid.NewString(),
		ActionID:  action.ID,
		ZipID:     action.ZipID,
		Method:    string(action.Method()),
		CreatedAt: start.UTC(),
	}
	outcome := &RunOutcome{Run: run}

	cfg, err := action.WebhookConfig()
	if err != nil {
		return outcome, r.finish(ctx, run, start, actionError(action.ID, err))
	}
	run.URL = cfg.URL()

	if action.Condition != "" {
		fire, err := r.evaluator.EvaluateBool(action.Condition, conditionEnv(zip, action, input))
		if err != nil {
			appErr := &AppError{Code: "INVALID_CONDITION", Status: 422, Message: err.Error(), Err: err}
			return outcome, r.finish(ctx, run, start, appErr)
		}
		if !fire {
			run.Status = RunSkipped
			return outcome, r.finish(ctx, run, start, nil)
		}
	}

	res, err := r.compiler.Send(ctx, cfg)
	if err != nil {
		var failure *webhook.FailureError
		if errors.As(err, &failure) {
			run.StatusCode = failure.StatusCode
			run.ResponseBody = string(failure.RawBody)
		}
		return outcome, r.finish(ctx, run, start, actionError(action.ID, err))
	}

	run.Status = RunSucceeded
	run.StatusCode = res.StatusCode
	run.ResponseBody = responseText(res.Body)
	outcome.Response = responseValue(res.Body)
	return outcome, r.finish(ctx, run, start, nil)
}

// finish stamps the run with its duration and final status, records it and
// passes runErr through. A run log write failure is logged, never returned.
func (r *Runner) finish(ctx context.Context, run *ActionRun, start time.Time, runErr *AppError) error {
	run.DurationMs = time.Since(start).Milliseconds()
	if runErr != nil {
		run.Error = runErr.Message
		if runErr.Code == "WEBHOOK_FAILED" {
			run.Status = RunFailed
		} else {
			run.Status = RunError
		}
	}

	if err := RecordRun(ctx, r.store.DB, r.store.Dialect, run); err != nil {
		r.log.Error("record action run", zap.String("action_id", run.ActionID), zap.Error(err))
	}

	fields := []zap.Field{
		zap.String("action_id", run.ActionID),
		zap.String("status", string(run.Status)),
		zap.Int("status_code", run.StatusCode),
		zap.Int64("duration_ms", run.DurationMs),
	}
	if runErr != nil {
		r.log.Warn("action run failed", append(fields, zap.Error(runErr))...)
		return runErr
	}
	r.log.Info("action run completed", fields...)
	return nil
}

func conditionEnv(zip *metadata.Zip, action *metadata.Action, input any) map[string]any {
	env := map[string]any{
		"input": input,
		"action": map[string]any{
			"id":        action.ID,
			"title":     action.Title,
			"hook_type": action.HookType,
			"position":  action.Position,
		},
	}
	if zip != nil {
		env["zip"] = map[string]any{"id": zip.ID, "title": zip.Title, "active": zip.Active}
	}
	return env
}

func responseText(body any) string {
	if raw, ok := body.([]byte); ok {
		return string(raw)
	}
	b, err := json.Marshal(body)
	if err != nil {
		return ""
	}
	return string(b)
}

// responseValue makes a response body JSON-friendly: raw bytes are returned
// as text rather than base64.
func responseValue(body any) any {
	if raw, ok := body.([]byte); ok {
		return string(raw)
	}
	return body
}
