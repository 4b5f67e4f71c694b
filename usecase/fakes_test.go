package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"ats/domain"
)

// memoryStore is an in-memory ApplicationStore and Directory. Every method
// runs under one mutex, which gives it the same atomicity the SQL store gets
// from its unique index and row lock.
type memoryStore struct {
	mu        sync.Mutex
	companies map[uint]*domain.Company
	users     map[uint]*domain.User
	jobs      map[uint]*domain.Job
	apps      map[uint]*domain.Application
	history   []domain.ApplicationHistory
	nextID    uint

	staffErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		companies: make(map[uint]*domain.Company),
		users:     make(map[uint]*domain.User),
		jobs:      make(map[uint]*domain.Job),
		apps:      make(map[uint]*domain.Application),
		nextID:    1000,
	}
}

func (s *memoryStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memoryStore) addCompany(name string) *domain.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &domain.Company{ID: s.id(), Name: name}
	s.companies[c.ID] = c
	return c
}

func (s *memoryStore) addUser(username string, role domain.Role, company *domain.Company) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{ID: s.id(), Username: username, Email: username + "@example.com", Role: role}
	if company != nil {
		companyID := company.ID
		u.CompanyID = &companyID
	}
	s.users[u.ID] = u
	return u
}

func (s *memoryStore) addJob(title string, company *domain.Company, status domain.JobStatus) *domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &domain.Job{ID: s.id(), Title: title, CompanyID: company.ID, Status: status}
	s.jobs[j.ID] = j
	return j
}

func (s *memoryStore) CreateApplication(_ context.Context, candidateID, jobID uint) (*domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, app := range s.apps {
		if app.CandidateID == candidateID && app.JobID == jobID {
			return nil, domain.DuplicateError("application already exists", errors.New("unique violation"))
		}
	}
	now := time.Now()
	app := &domain.Application{
		ID:          s.id(),
		CandidateID: candidateID,
		JobID:       jobID,
		Stage:       domain.StageApplied,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.apps[app.ID] = app
	out := *app
	return &out, nil
}

func (s *memoryStore) Transition(_ context.Context, applicationID uint, from, to domain.Stage, actorID uint) (*domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[applicationID]
	if !ok {
		return nil, domain.NotFoundError("application not found")
	}
	if app.Stage != from {
		return nil, domain.ConflictError(fmt.Sprintf("application is now %s, expected %s", app.Stage, from))
	}
	now := time.Now()
	app.Stage = to
	app.UpdatedAt = now
	h := domain.ApplicationHistory{
		ID:            s.id(),
		ApplicationID: applicationID,
		FromStage:     from,
		ToStage:       to,
		ChangedAt:     now,
	}
	if actorID != 0 {
		h.ChangedByID = &actorID
	}
	s.history = append(s.history, h)
	out := *app
	return &out, nil
}

func (s *memoryStore) GetApplication(_ context.Context, id uint) (*domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, domain.NotFoundError("application not found")
	}
	out := *app
	out.Job = s.jobs[app.JobID]
	out.Candidate = s.users[app.CandidateID]
	return &out, nil
}

func (s *memoryStore) ListApplicationsByJob(_ context.Context, jobID uint) ([]domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Application
	for _, app := range s.apps {
		if app.JobID == jobID {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (s *memoryStore) ListApplicationsByCandidate(_ context.Context, candidateID uint) ([]domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Application
	for _, app := range s.apps {
		if app.CandidateID == candidateID {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (s *memoryStore) ListHistory(_ context.Context, applicationID uint) ([]domain.ApplicationHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ApplicationHistory
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].ApplicationID == applicationID {
			out = append(out, s.history[i])
		}
	}
	return out, nil
}

func (s *memoryStore) GetCompany(_ context.Context, id uint) (*domain.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, domain.NotFoundError("company not found")
	}
	return c, nil
}

func (s *memoryStore) ListCompanies(_ context.Context) ([]domain.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memoryStore) CreateCompany(_ context.Context, company *domain.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	company.ID = s.id()
	stored := *company
	s.companies[company.ID] = &stored
	return nil
}

func (s *memoryStore) GetUser(_ context.Context, id uint) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.NotFoundError("user not found")
	}
	return u, nil
}

func (s *memoryStore) ListStaff(_ context.Context, companyID uint, role domain.Role) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staffErr != nil {
		return nil, s.staffErr
	}
	var out []domain.User
	for _, u := range s.users {
		if u.Role == role && u.WorksFor(companyID) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *memoryStore) GetJob(_ context.Context, id uint) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.NotFoundError("job not found")
	}
	out := *j
	return &out, nil
}

func (s *memoryStore) ListJobs(_ context.Context, status domain.JobStatus) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Job
	for _, j := range s.jobs {
		if status == "" || j.Status == status {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memoryStore) CreateJob(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.ID = s.id()
	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

func (s *memoryStore) UpdateJobStatus(_ context.Context, id uint, status domain.JobStatus) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.NotFoundError("job not found")
	}
	j.Status = status
	out := *j
	return &out, nil
}

func (s *memoryStore) historyCount(applicationID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.history {
		if h.ApplicationID == applicationID {
			n++
		}
	}
	return n
}

// recordingNotifier captures notifications instead of sending them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) all() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.sent...)
}

func (r *recordingNotifier) kinds() []domain.NotificationKind {
	var out []domain.NotificationKind
	for _, n := range r.all() {
		out = append(out, n.Kind)
	}
	return out
}
