package overseer

import (
	"context"

	"github.com/thirdeye/overseer/internal/eyes"
	"github.com/thirdeye/overseer/internal/logging"
	"github.com/thirdeye/overseer/internal/models"
)

// runPipeline executes eyesNeeded sequentially, publishing progress and
// per-Eye results, short-circuiting on clarification/revision outcomes,
// and retrying once on a transport/LLM error before giving up on an Eye.
func (o *Overseer) runPipeline(ctx context.Context, sessionID, tenantID string, envelope *models.WorkEnvelope, decision RoutingDecision, eyesNeeded []string) (*models.OrchestrationResult, error) {
	total := len(eyesNeeded) + 2
	results := make(map[string]*models.EyeResult, len(eyesNeeded))

	ic := eyes.InvocationContext{SessionID: sessionID, TenantID: tenantID, ReasoningMD: envelope.ReasoningMD}

	for idx, name := range eyesNeeded {
		if ctx.Err() != nil {
			o.publishProgress(sessionID, "aborted", idx, total)
			return &models.OrchestrationResult{
				OK:      false,
				Code:    models.OrchestrationPartialFail,
				Summary: "Orchestration aborted before completion.",
				Data: map[string]any{
					"partial_results":       results,
					"completed_validations": eyeNames(results),
				},
				NextAction: models.NextActionAddressFailures,
			}, nil
		}

		o.publishProgress(sessionID, "eye_"+name, idx+1, total)
		eyeLog := logging.WithEye(o.log, name, idx+1)

		result, err := o.registry.Invoke(ctx, name, ic, envelope)
		if err != nil {
			eyeLog.Debug("eye invocation failed, retrying once", "error", err)
			result, err = o.registry.Invoke(ctx, name, ic, envelope)
			if err != nil {
				eyeLog.Warn("eye invocation failed after retry", "error", err)
				o.bus.Publish(sessionID, models.EventOrchestrationFailed, map[string]any{
					"eye":   name,
					"error": err.Error(),
				})
				return &models.OrchestrationResult{
					OK:      false,
					Code:    models.OrchestrationPartialFail,
					Summary: "Orchestration failed at " + name + " after a retry.",
					Data: map[string]any{
						"partial_results":       results,
						"completed_validations": eyeNames(results),
						"failed_eye":             name,
						"error":                 err.Error(),
						"planned_eyes":           eyesNeeded,
					},
					NextAction: models.NextActionAddressFailures,
				}, nil
			}
		}

		eyeLog.Debug("eye invocation complete", "ok", result.OK, "code", result.Code)

		excerpt, excerptErr := renderAuditExcerptHTML(result.Summary)
		if excerptErr != nil {
			eyeLog.Warn("failed to render audit excerpt", "error", excerptErr)
			excerpt = ""
		}
		o.bus.Publish(sessionID, models.EventEyeResult, map[string]any{
			"eye":         name,
			"result":      result,
			"summary_html": excerpt,
		})

		results[name] = result

		if result.OK != nil && !*result.OK {
			switch result.Code {
			case models.OutcomeClarificationRequired:
				return &models.OrchestrationResult{
					OK:      true,
					Code:    models.OrchestrationAwaitingInput,
					Summary: "Clarification required before proceeding.",
					Data: map[string]any{
						"clarifications": result.Data["clarifications"],
						"eye":            name,
					},
					NextAction: models.NextActionSubmitClarifications,
				}, nil
			case models.OutcomeRevisionRequired:
				return &models.OrchestrationResult{
					OK:      false,
					Code:    models.OrchestrationRevisionRequired,
					Summary: result.Summary,
					Data: map[string]any{
						"recommendations": result.Data,
						"eye":             name,
					},
					NextAction: models.NextActionReviseAndResubmit,
				}, nil
			}
		}
	}

	o.publishProgress(sessionID, "synthesis", len(eyesNeeded)+1, total)

	allPassed := true
	var confidenceSum float64
	var confidenceCount int
	for _, r := range results {
		if r.OK == nil || !*r.OK {
			allPassed = false
		}
		if r.Confidence > 0 {
			confidenceSum += r.Confidence
			confidenceCount++
		}
	}
	confidence := 0.5
	if confidenceCount > 0 {
		confidence = confidenceSum / float64(confidenceCount)
	}

	code := models.OrchestrationOKAll
	nextAction := models.NextActionProceed
	if !allPassed {
		code = models.OrchestrationPartialFail
		nextAction = models.NextActionAddressFailures
	}

	o.publishProgress(sessionID, "complete", len(eyesNeeded)+2, total)
	o.bus.Publish(sessionID, models.EventOrchestrationComplete, map[string]any{
		"ok":         allPassed,
		"eyes_used":  eyesNeeded,
		"confidence": confidence,
	})

	return &models.OrchestrationResult{
		OK:      allPassed,
		Code:    code,
		Summary: "Orchestration complete. " + decision.Reasoning,
		Data: map[string]any{
			"analysis":   decision.Analysis,
			"reasoning":  decision.Reasoning,
			"validations": results,
			"eyes_used":  eyesNeeded,
			"confidence": confidence,
		},
		NextAction: nextAction,
	}, nil
}

func (o *Overseer) publishProgress(sessionID, stage string, completedStages, totalStages int) {
	payload := models.OrchestrationProgressPayload{
		Progress:        float64(completedStages) / float64(totalStages),
		CurrentStage:    stage,
		TotalStages:     totalStages,
		CompletedStages: completedStages,
	}
	o.bus.Publish(sessionID, models.EventOrchestrationProgress, map[string]any{
		"progress":         payload.Progress,
		"current_stage":    payload.CurrentStage,
		"total_stages":     payload.TotalStages,
		"completed_stages": payload.CompletedStages,
	})
}

func eyeNames(results map[string]*models.EyeResult) []string {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	return names
}
