// Package policy decides who may apply, view and move applications.
//
// Every function is a pure predicate over the actor and the target; the
// request layer composes them before calling into the workflow engine.
package policy

import (
	"fmt"

	"ats/domain"
)

// Decision is the all-or-nothing outcome of one authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// Err converts a denial into a forbidden error. It returns nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return domain.AuthorizationError(d.Reason)
}

// CanApply allows candidates to apply to any company's jobs.
func CanApply(actor *domain.User) Decision {
	if actor == nil {
		return deny("authentication required")
	}
	if actor.Role != domain.RoleCandidate {
		return deny("only candidates can apply")
	}
	return allow()
}

// CanViewJobApplications allows staff of the job's company.
func CanViewJobApplications(actor *domain.User, job *domain.Job) Decision {
	if actor == nil {
		return deny("authentication required")
	}
	if job == nil {
		return deny("job is required")
	}
	return staffOf(actor, job.CompanyID)
}

// CanViewApplication allows staff of the owning company and the candidate
// who submitted the application.
func CanViewApplication(actor *domain.User, app *domain.Application) Decision {
	if actor == nil {
		return deny("authentication required")
	}
	if app == nil {
		return deny("application is required")
	}
	if actor.Role == domain.RoleCandidate {
		if app.CandidateID == actor.ID {
			return allow()
		}
		return deny("candidates can only view their own applications")
	}
	if app.Job == nil {
		return deny("application job is unknown")
	}
	return staffOf(actor, app.Job.CompanyID)
}

// CanChangeStage allows recruiters and managers of the owning company.
func CanChangeStage(actor *domain.User, app *domain.Application) Decision {
	if actor == nil {
		return deny("authentication required")
	}
	if app == nil || app.Job == nil {
		return deny("application job is unknown")
	}
	return staffOf(actor, app.Job.CompanyID)
}

// CanManageJobs allows recruiters of companyID to post and close jobs.
func CanManageJobs(actor *domain.User, companyID uint) Decision {
	if actor == nil {
		return deny("authentication required")
	}
	if actor.Role != domain.RoleRecruiter {
		return deny("only recruiters can manage jobs")
	}
	if !actor.WorksFor(companyID) {
		return deny("recruiter does not belong to company %d", companyID)
	}
	return allow()
}

func staffOf(actor *domain.User, companyID uint) Decision {
	if !actor.IsStaff() {
		return deny("role %s is not allowed", actor.Role)
	}
	if actor.CompanyID == nil {
		return deny("%s has no company", actor.Role)
	}
	if !actor.WorksFor(companyID) {
		return deny("%s belongs to another company", actor.Role)
	}
	return allow()
}
