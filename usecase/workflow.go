// Package usecase holds the application workflow engine and job
// management. Authorization is decided by package policy before these
// operations are called.
package usecase

import (
	"context"
	"fmt"
	"maps"
	"strconv"

	"github.com/sirupsen/logrus"

	"ats/domain"
)

// Engine applies candidates to jobs and moves applications through the
// stage graph. Notifications are handed to the notifier only after the
// store has committed.
type Engine struct {
	graph    *domain.StageGraph
	store    domain.ApplicationStore
	dir      domain.Directory
	notifier domain.Notifier
	log      logrus.FieldLogger
}

func NewEngine(graph *domain.StageGraph, store domain.ApplicationStore, dir domain.Directory, notifier domain.Notifier, log logrus.FieldLogger) *Engine {
	return &Engine{
		graph:    graph,
		store:    store,
		dir:      dir,
		notifier: notifier,
		log:      log,
	}
}

// Apply creates an Applied application for candidate on an open job.
func (e *Engine) Apply(ctx context.Context, candidate *domain.User, jobID uint) (*domain.Application, error) {
	if candidate == nil || candidate.Role != domain.RoleCandidate {
		return nil, domain.AuthorizationError("only candidates can apply")
	}
	job, err := e.dir.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsOpen() {
		return nil, domain.ValidationError("job is not open")
	}

	app, err := e.store.CreateApplication(ctx, candidate.ID, job.ID)
	if err != nil {
		if domain.IsCode(err, domain.CodeDuplicate) {
			return nil, domain.NewError(domain.CodeValidation, "already applied", err)
		}
		return nil, err
	}
	app.Job = job
	app.Candidate = candidate

	e.log.WithFields(logrus.Fields{
		"application": app.ID,
		"candidate":   candidate.ID,
		"job":         job.ID,
	}).Info("application created")

	e.notifyApplied(ctx, app)
	return app, nil
}

// ChangeStage moves app to newStage when the stage graph allows it. The
// store re-checks the current stage inside its transaction, so a stale app
// yields a conflict error the caller may retry after reloading.
func (e *Engine) ChangeStage(ctx context.Context, app *domain.Application, newStage string, actor *domain.User) (*domain.Application, error) {
	next, ok := domain.ParseStage(newStage)
	if !ok {
		return nil, domain.ValidationError("invalid stage")
	}
	if app == nil {
		return nil, domain.NotFoundError("application not found")
	}
	if !e.graph.CanTransition(app.Stage, next) {
		return nil, domain.ValidationError(fmt.Sprintf("invalid transition from %s to %s", app.Stage, next))
	}

	var actorID uint
	if actor != nil {
		actorID = actor.ID
	}
	from := app.Stage
	updated, err := e.store.Transition(ctx, app.ID, from, next, actorID)
	if err != nil {
		return nil, err
	}
	updated.Job = app.Job
	updated.Candidate = app.Candidate

	e.log.WithFields(logrus.Fields{
		"application": updated.ID,
		"from":        from,
		"to":          next,
		"actor":       actorID,
	}).Info("application stage changed")

	e.notifyStageChanged(ctx, updated, from)
	return updated, nil
}

// Application loads one application with its job and candidate.
func (e *Engine) Application(ctx context.Context, id uint) (*domain.Application, error) {
	return e.store.GetApplication(ctx, id)
}

func (e *Engine) JobApplications(ctx context.Context, jobID uint) ([]domain.Application, error) {
	return e.store.ListApplicationsByJob(ctx, jobID)
}

func (e *Engine) CandidateApplications(ctx context.Context, candidateID uint) ([]domain.Application, error) {
	return e.store.ListApplicationsByCandidate(ctx, candidateID)
}

// History returns the audit trail of an application, newest first.
func (e *Engine) History(ctx context.Context, applicationID uint) ([]domain.ApplicationHistory, error) {
	return e.store.ListHistory(ctx, applicationID)
}

func (e *Engine) notifyApplied(ctx context.Context, app *domain.Application) {
	notificationCtx := applicationContext(app)

	if app.Candidate.Email != "" {
		e.notifier.Notify(ctx, domain.Notification{
			Kind:           domain.NotifyCandidateConfirmation,
			RecipientEmail: app.Candidate.Email,
			Context:        maps.Clone(notificationCtx),
		})
	}

	recruiters, err := e.dir.ListStaff(ctx, app.Job.CompanyID, domain.RoleRecruiter)
	if err != nil {
		e.log.WithError(err).WithField("application", app.ID).Warn("skipping recruiter notifications")
		return
	}
	for _, recruiter := range recruiters {
		if recruiter.Email == "" {
			continue
		}
		e.notifier.Notify(ctx, domain.Notification{
			Kind:           domain.NotifyRecruiterNewApplication,
			RecipientEmail: recruiter.Email,
			Context:        maps.Clone(notificationCtx),
		})
	}
}

func (e *Engine) notifyStageChanged(ctx context.Context, app *domain.Application, from domain.Stage) {
	if app.Candidate == nil || app.Candidate.Email == "" {
		e.log.WithField("application", app.ID).Debug("candidate has no email, skipping status update")
		return
	}
	notificationCtx := applicationContext(app)
	notificationCtx["from_stage"] = string(from)
	notificationCtx["to_stage"] = string(app.Stage)

	e.notifier.Notify(ctx, domain.Notification{
		Kind:           domain.NotifyCandidateStatusUpdate,
		RecipientEmail: app.Candidate.Email,
		Context:        notificationCtx,
	})
}

func applicationContext(app *domain.Application) map[string]string {
	c := map[string]string{
		"application_id": strconv.FormatUint(uint64(app.ID), 10),
		"stage":          string(app.Stage),
	}
	if app.Candidate != nil {
		c["candidate"] = app.Candidate.Username
	}
	if app.Job != nil {
		c["job_title"] = app.Job.Title
	}
	return c
}
