package interfaces

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ats/domain"
	"ats/infrastructure"
	"ats/policy"
	"ats/usecase"
)

const (
	UserIDHeader = "X-User-ID"
	actorKey     = "actor"
)

type HTTPHandler struct {
	engine    *usecase.Engine
	jobs      *usecase.Jobs
	companies *usecase.Companies
	dir       domain.Directory
	limiter   infrastructure.Limiter
	log       logrus.FieldLogger
}

// NewHTTPHandler registers every route on router. The acting user comes
// from the X-User-ID header set by the upstream gateway.
func NewHTTPHandler(router *gin.Engine, engine *usecase.Engine, jobs *usecase.Jobs, companies *usecase.Companies, dir domain.Directory, limiter infrastructure.Limiter, log logrus.FieldLogger) {
	if limiter == nil {
		limiter = infrastructure.NewLocalLimiter(0, 0)
	}
	h := &HTTPHandler{
		engine:    engine,
		jobs:      jobs,
		companies: companies,
		dir:       dir,
		limiter:   limiter,
		log:       log,
	}

	router.GET("/health", h.Health)

	api := router.Group("/", h.authenticate)
	api.GET("/me", h.Me)
	api.GET("/me/applications", h.MyApplications)

	api.POST("/applications/apply", h.Apply)
	api.GET("/applications/:id", h.GetApplication)
	api.POST("/applications/:id/change-stage", h.ChangeStage)
	api.GET("/applications/:id/history", h.History)

	api.GET("/companies", h.ListCompanies)
	api.POST("/companies", h.CreateCompany)

	api.GET("/jobs", h.ListJobs)
	api.POST("/jobs", h.CreateJob)
	api.GET("/jobs/:id", h.GetJob)
	api.POST("/jobs/:id/close", h.CloseJob)
	api.GET("/jobs/:id/applications", h.JobApplications)
}

func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) authenticate(c *gin.Context) {
	raw := strings.TrimSpace(c.GetHeader(UserIDHeader))
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
		return
	}
	user, err := h.dir.GetUser(c.Request.Context(), uint(id))
	if err != nil {
		if domain.IsCode(err, domain.CodeNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}
		h.writeError(c, err)
		c.Abort()
		return
	}
	c.Set(actorKey, user)
	c.Next()
}

func (h *HTTPHandler) Me(c *gin.Context) {
	actor := actorFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"id":       actor.ID,
		"username": actor.Username,
		"email":    actor.Email,
		"role":     actor.Role,
		"company":  actor.CompanyID,
	})
}

func (h *HTTPHandler) MyApplications(c *gin.Context) {
	actor := actorFrom(c)
	if actor.Role != domain.RoleCandidate {
		h.writeError(c, domain.AuthorizationError("only candidates have applications"))
		return
	}
	apps, err := h.engine.CandidateApplications(c.Request.Context(), actor.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(apps))
}

// Apply creates an application for the acting candidate. Attempts are
// throttled per candidate across all jobs.
func (h *HTTPHandler) Apply(c *gin.Context) {
	var req struct {
		Job uint `json:"job" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job is required"})
		return
	}

	actor := actorFrom(c)
	if err := policy.CanApply(actor).Err(); err != nil {
		h.writeError(c, err)
		return
	}
	key := fmt.Sprintf("apply:%d", actor.ID)
	if !h.limiter.Allow(c.Request.Context(), key) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	app, err := h.engine.Apply(c.Request.Context(), actor, req.Job)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *HTTPHandler) GetApplication(c *gin.Context) {
	app, ok := h.loadApplication(c)
	if !ok {
		return
	}
	if err := policy.CanViewApplication(actorFrom(c), app).Err(); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// ChangeStage moves an application to the requested stage. Authorization
// runs before the stage is looked at, so candidates are always refused.
func (h *HTTPHandler) ChangeStage(c *gin.Context) {
	app, ok := h.loadApplication(c)
	if !ok {
		return
	}
	actor := actorFrom(c)
	if err := policy.CanChangeStage(actor, app).Err(); err != nil {
		h.writeError(c, err)
		return
	}

	var req struct {
		Stage string `json:"stage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stage is required"})
		return
	}

	updated, err := h.engine.ChangeStage(c.Request.Context(), app, req.Stage, actor)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *HTTPHandler) History(c *gin.Context) {
	app, ok := h.loadApplication(c)
	if !ok {
		return
	}
	if err := policy.CanViewApplication(actorFrom(c), app).Err(); err != nil {
		h.writeError(c, err)
		return
	}
	history, err := h.engine.History(c.Request.Context(), app.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(history))
}

func (h *HTTPHandler) JobApplications(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	if err := policy.CanViewJobApplications(actorFrom(c), job).Err(); err != nil {
		h.writeError(c, err)
		return
	}
	apps, err := h.engine.JobApplications(c.Request.Context(), job.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(apps))
}

// ListJobs returns open jobs unless ?status=closed or ?status=all is given.
func (h *HTTPHandler) ListJobs(c *gin.Context) {
	jobs, err := h.jobs.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(jobs))
}

func (h *HTTPHandler) GetJob(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *HTTPHandler) ListCompanies(c *gin.Context) {
	companies, err := h.companies.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(companies))
}

// CreateCompany is open to any authenticated user.
func (h *HTTPHandler) CreateCompany(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	company, err := h.companies.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (h *HTTPHandler) CreateJob(c *gin.Context) {
	var req struct {
		Company     uint   `json:"company" binding:"required"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company is required"})
		return
	}
	if err := policy.CanManageJobs(actorFrom(c), req.Company).Err(); err != nil {
		h.writeError(c, err)
		return
	}
	job, err := h.jobs.Create(c.Request.Context(), req.Company, req.Title, req.Description)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *HTTPHandler) CloseJob(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	if err := policy.CanManageJobs(actorFrom(c), job.CompanyID).Err(); err != nil {
		h.writeError(c, err)
		return
	}
	closed, err := h.jobs.Close(c.Request.Context(), job)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, closed)
}

func (h *HTTPHandler) loadApplication(c *gin.Context) (*domain.Application, bool) {
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}
	app, err := h.engine.Application(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return app, true
}

func (h *HTTPHandler) loadJob(c *gin.Context) (*domain.Job, bool) {
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}
	job, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return job, true
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// writeError maps the error code to a status. Internal errors are logged
// and answered with a generic message.
func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	status := statusFor(domain.CodeOf(err))
	if status == http.StatusInternalServerError {
		h.log.WithError(err).WithField("request_id", c.GetString(RequestIDKey)).Error("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": domain.MessageOf(err)})
}

func statusFor(code domain.Code) int {
	switch code {
	case domain.CodeValidation, domain.CodeDuplicate:
		return http.StatusBadRequest
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func actorFrom(c *gin.Context) *domain.User {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
