// Package pipeline drives the end-to-end document workflow: submit the staged
// file, request standardization, poll for the result with bounded retries,
// persist the extracted record, and archive the source file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/timw/docuflow/internal/docupanda"
	"github.com/timw/docuflow/internal/domain"
	"github.com/timw/docuflow/internal/logger"
	"github.com/timw/docuflow/internal/repository"
	"github.com/timw/docuflow/internal/sink"
	"github.com/timw/docuflow/internal/staging"
)

// RemoteClient is the subset of the extraction API the pipeline drives.
type RemoteClient interface {
	SubmitDocument(ctx context.Context, filePath, filename string) (*domain.SubmittedDocument, error)
	Standardize(ctx context.Context, schemaID string, documentIDs []string) ([]string, error)
	FetchResult(ctx context.Context, standardizationID string) (*docupanda.Result, error)
}

// SleepFunc suspends until the duration elapses or the context is canceled.
// Injected so the wait/attempt policy is testable without wall-clock delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Progress receives human-readable status updates as a run advances, so a
// long-running operation is not silent.
type Progress func(state domain.RunState, message string)

// Config holds the orchestration policy.
type Config struct {
	SchemaID string

	// WarmupDelay is observed between submit and standardize: the remote
	// service needs processing time after submission before it accepts a
	// standardization request for the same document. Not a retry.
	WarmupDelay time.Duration

	// PollInterval is the fixed wait preceding every poll attempt.
	PollInterval time.Duration

	// MaxAttempts bounds the polling loop.
	MaxAttempts int

	// FailFastPollErrors aborts polling on a hard remote error instead of
	// absorbing it and retrying.
	FailFastPollErrors bool

	// BinaryDir receives raw artifacts when the service returns a non-JSON
	// result.
	BinaryDir string
}

// RunResult is the terminal outcome of one pipeline run.
type RunResult struct {
	RunID             string          `json:"run_id"`
	State             domain.RunState `json:"state"`
	DocumentID        string          `json:"document_id,omitempty"`
	StandardizationID string          `json:"standardization_id,omitempty"`
	Attempts          int             `json:"attempts"`
	OutputPath        string          `json:"output_path,omitempty"`
	ArchivedPath      string          `json:"archived_path,omitempty"`
	Degraded          bool            `json:"degraded,omitempty"`
	Message           string          `json:"message"`
}

// Pipeline orchestrates one document run at a time. Each run is strictly
// sequential; concurrent runs share only the sink file and archive directory,
// both of which serialize access internally.
type Pipeline struct {
	client RemoteClient
	stager *staging.Stager
	sink   sink.Sink
	runs   *repository.RunRepository
	logger *logger.Logger
	cfg    Config
	sleep  SleepFunc
}

// New creates a pipeline orchestrator.
// Parameters:
//   - client: remote extraction API client.
//   - stager: file stager for the incoming/archived lifecycle.
//   - resultSink: tabular store sink.
//   - runs: run-history repository; may be nil to disable auditing.
//   - log: logger instance.
//   - cfg: orchestration policy.
// Returns:
//   - *Pipeline: initialized orchestrator.
func New(client RemoteClient, stager *staging.Stager, resultSink sink.Sink, runs *repository.RunRepository, log *logger.Logger, cfg Config) *Pipeline {
	if log == nil {
		log = logger.GetDefault()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 12
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 20 * time.Second
	}
	return &Pipeline{
		client: client,
		stager: stager,
		sink:   resultSink,
		runs:   runs,
		logger: log,
		cfg:    cfg,
		sleep:  defaultSleep,
	}
}

// Run executes the full workflow for one staged document.
// Parameters:
//   - ctx: context for cancellation.
//   - stagedPath: path of the staged file in the incoming directory.
//   - filename: original uploaded filename.
//   - progress: optional incremental status callback; may be nil.
// Returns:
//   - *RunResult: terminal outcome, also populated on failure.
//   - error: non-nil only when the run failed; a timeout is not an error.
func (p *Pipeline) Run(ctx context.Context, stagedPath, filename string, progress Progress) (*RunResult, error) {
	if progress == nil {
		progress = func(domain.RunState, string) {}
	}

	run := &domain.PipelineRun{
		ID:        uuid.New().String(),
		Filename:  filename,
		State:     domain.RunStateStaged,
		StartedAt: time.Now().UTC(),
	}
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldRunID:    run.ID,
		logger.FieldFilename: filename,
	})
	p.createRun(ctx, run)

	result := &RunResult{RunID: run.ID, State: domain.RunStateStaged}

	// Staged -> Submitted
	doc, err := p.client.SubmitDocument(ctx, stagedPath, filename)
	if err != nil {
		return p.fail(ctx, run, result, fmt.Errorf("document submission failed: %w", err))
	}
	run.DocumentID = doc.DocumentID
	result.DocumentID = doc.DocumentID
	p.transition(ctx, run, result, domain.RunStateSubmitted)
	ctx = logger.WithField(ctx, logger.FieldDocumentID, doc.DocumentID)
	progress(domain.RunStateSubmitted, fmt.Sprintf("File uploaded. Document ID: %s", doc.DocumentID))

	// Submitted -> StandardizationRequested
	if p.cfg.SchemaID == "" {
		return p.fail(ctx, run, result, &domain.ConfigError{Key: "DOCUPANDA_SCHEMA_ID"})
	}
	logger.CtxInfo(ctx, "Waiting %s before requesting standardization", p.cfg.WarmupDelay)
	if err := p.sleep(ctx, p.cfg.WarmupDelay); err != nil {
		return p.fail(ctx, run, result, fmt.Errorf("run canceled during warm-up: %w", err))
	}

	standardizationIDs, err := p.client.Standardize(ctx, p.cfg.SchemaID, []string{doc.DocumentID})
	if err != nil {
		return p.fail(ctx, run, result, fmt.Errorf("standardization request failed: %w", err))
	}
	if len(standardizationIDs) == 0 {
		return p.fail(ctx, run, result, domain.ErrNoStandardization)
	}
	job := &domain.StandardizationJob{
		StandardizationID: standardizationIDs[0],
		DocumentID:        doc.DocumentID,
		SchemaID:          p.cfg.SchemaID,
		Status:            domain.JobStatusPending,
	}
	run.StandardizationID = job.StandardizationID
	result.StandardizationID = job.StandardizationID
	p.transition(ctx, run, result, domain.RunStateStandardizeReqd)
	ctx = logger.WithField(ctx, logger.FieldStandardizationID, job.StandardizationID)
	progress(domain.RunStateStandardizeReqd, fmt.Sprintf("Standardization initiated. Standardization ID: %s", job.StandardizationID))

	// StandardizationRequested -> Polling
	p.transition(ctx, run, result, domain.RunStatePolling)

	var record domain.ExtractedRecord
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		run.Attempts = attempt
		result.Attempts = attempt
		progress(domain.RunStatePolling, fmt.Sprintf("Attempt %d of %d: checking for extracted data", attempt, p.cfg.MaxAttempts))

		if err := p.sleep(ctx, p.cfg.PollInterval); err != nil {
			return p.fail(ctx, run, result, fmt.Errorf("run canceled while polling: %w", err))
		}

		res, err := p.client.FetchResult(ctx, job.StandardizationID)
		if err != nil {
			var cfgErr *domain.ConfigError
			if errors.As(err, &cfgErr) {
				return p.fail(ctx, run, result, err)
			}
			if p.cfg.FailFastPollErrors {
				return p.fail(ctx, run, result, fmt.Errorf("result retrieval failed: %w", err))
			}
			// Transient remote faults during a multi-minute async job are
			// expected; the attempt still counts.
			logger.With(logger.Fields{logger.FieldAttempt: attempt}).
				Warn(ctx, "Poll attempt failed, continuing: %v", err)
			continue
		}

		if res.IsBinary() {
			job.Status = domain.JobStatusReady
			return p.saveBinary(ctx, run, result, job.StandardizationID, res.Raw, progress)
		}
		if res.Record != nil {
			job.Status = domain.JobStatusReady
			record = res.Record
			break
		}

		logger.With(logger.Fields{logger.FieldAttempt: attempt}).
			Debug(ctx, "No data retrieved yet, status=%q", res.Status)
	}

	if record == nil {
		// Polling exhausted: the staged file stays in incoming for a later
		// manual retry against the same standardization ID.
		p.transition(ctx, run, result, domain.RunStateTimedOut)
		p.finishRun(ctx, run, "")
		result.Message = fmt.Sprintf(
			"Document processing is taking longer than expected. Retry retrieval later using standardization ID %s.",
			job.StandardizationID)
		logger.With(logger.Fields{logger.FieldAttempt: result.Attempts}).
			Warn(ctx, "Polling exhausted after %d attempts", p.cfg.MaxAttempts)
		return result, nil
	}

	p.transition(ctx, run, result, domain.RunStateExtracted)
	progress(domain.RunStateExtracted, "Extracted data retrieved, saving")

	// Extracted -> Archived. The record must be durably saved before the
	// source file leaves incoming.
	if err := p.sink.Append(ctx, record); err != nil {
		if !errors.Is(err, domain.ErrPersistenceDegraded) {
			return p.fail(ctx, run, result, fmt.Errorf("failed to persist extracted record: %w", err))
		}
		result.Degraded = true
		logger.CtxWarn(ctx, "Record persisted in degraded mode: %v", err)
	}
	run.OutputPath = p.sink.Path()
	result.OutputPath = p.sink.Path()

	archivedPath, err := p.stager.Archive(stagedPath)
	if err != nil {
		// Record saved, source not archived; it stays in incoming.
		return p.fail(ctx, run, result, fmt.Errorf("extracted record saved but archiving failed: %w", err))
	}
	run.ArchivedPath = archivedPath
	result.ArchivedPath = archivedPath
	p.transition(ctx, run, result, domain.RunStateArchived)
	p.finishRun(ctx, run, "")

	result.Message = "Document processed and data saved successfully."
	progress(domain.RunStateArchived, result.Message)
	return result, nil
}

// saveBinary persists a raw artifact returned instead of structured data. The
// job is terminal without reaching the tabular path; since no record entered
// the store, the source file stays in incoming.
func (p *Pipeline) saveBinary(ctx context.Context, run *domain.PipelineRun, result *RunResult, standardizationID string, raw []byte, progress Progress) (*RunResult, error) {
	if err := os.MkdirAll(p.cfg.BinaryDir, 0755); err != nil {
		return p.fail(ctx, run, result, &domain.IOFault{Op: "mkdir", Path: p.cfg.BinaryDir, Err: err})
	}
	path := filepath.Join(p.cfg.BinaryDir, standardizationID+".zip")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return p.fail(ctx, run, result, &domain.IOFault{Op: "write", Path: path, Err: err})
	}

	run.OutputPath = path
	result.OutputPath = path
	p.transition(ctx, run, result, domain.RunStateBinarySaved)
	p.finishRun(ctx, run, "")

	result.Message = fmt.Sprintf("Extracted data saved as %s.", path)
	progress(domain.RunStateBinarySaved, result.Message)
	logger.With(logger.Fields{logger.FieldSize: len(raw)}).
		Info(ctx, "Non-JSON result saved as binary artifact: %s", path)
	return result, nil
}

// fail marks the run failed and returns the error. The staged file is left
// consistent with the last successful transition.
func (p *Pipeline) fail(ctx context.Context, run *domain.PipelineRun, result *RunResult, err error) (*RunResult, error) {
	result.State = domain.RunStateFailed
	result.Message = err.Error()
	run.State = domain.RunStateFailed
	p.finishRun(ctx, run, err.Error())
	logger.CtxError(ctx, "Pipeline run failed: %v", err)
	return result, err
}

func (p *Pipeline) transition(ctx context.Context, run *domain.PipelineRun, result *RunResult, state domain.RunState) {
	run.State = state
	result.State = state
	logger.CtxInfo(ctx, "Pipeline state: %s", state)
	p.updateRun(ctx, run)
}

// Run auditing is best-effort; a failed save never affects the run itself.

func (p *Pipeline) createRun(ctx context.Context, run *domain.PipelineRun) {
	if p.runs == nil {
		return
	}
	if err := p.runs.Create(ctx, run); err != nil {
		logger.CtxWarn(ctx, "Failed to record pipeline run: %v", err)
	}
}

func (p *Pipeline) updateRun(ctx context.Context, run *domain.PipelineRun) {
	if p.runs == nil {
		return
	}
	if err := p.runs.Update(ctx, run); err != nil {
		logger.CtxWarn(ctx, "Failed to update pipeline run: %v", err)
	}
}

func (p *Pipeline) finishRun(ctx context.Context, run *domain.PipelineRun, errText string) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.ErrorText = errText
	p.updateRun(ctx, run)
}

// defaultSleep is a context-aware timer wait.
func defaultSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
