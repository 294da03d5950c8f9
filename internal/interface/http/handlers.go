package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/arlearn/arlearn-engine/internal/application/command"
	"github.com/arlearn/arlearn-engine/internal/application/query"
	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/progress"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// The four-way error taxonomy maps onto status codes: validation 400,
// not-found 404, precondition 409, upstream 502, everything else 500.
// Conflicts (already enrolled, already certificated) never reach this path -
// the command handlers fold them into success-with-indicator results.
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError translates a command/query error into an HTTP response.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsValidation(err),
		errors.Is(err, learner.ErrInvalidName),
		errors.Is(err, learner.ErrInvalidEmail):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())

	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())

	case shared.IsPrecondition(err):
		writeJSONError(w, http.StatusConflict, "precondition_failed", err.Error())

	case shared.IsExternalService(err):
		writeJSONError(w, http.StatusBadGateway, "upstream_error", err.Error())

	default:
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"error", err,
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
	}
}

// decodeBody decodes a JSON request body, rejecting unknown garbage early.
func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dest); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON")
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// DTOs
// ══════════════════════════════════════════════════════════════════════════════

// progressRecordDTO is the wire shape of a ledger record.
type progressRecordDTO struct {
	LearnerID          string               `json:"learner_id"`
	CourseID           string               `json:"course_id"`
	Completion         int                  `json:"completion"`
	ContentProgress    map[string]int       `json:"content_progress"`
	QuizScores         []progress.QuizScore `json:"quiz_scores"`
	EnrollmentDate     *time.Time           `json:"enrollment_date,omitempty"`
	LastAccessed       *time.Time           `json:"last_accessed,omitempty"`
	CompletionDate     *time.Time           `json:"completion_date,omitempty"`
	CertificateLocator string               `json:"certificate_locator,omitempty"`
}

func toProgressRecordDTO(rec *progress.Record) progressRecordDTO {
	dto := progressRecordDTO{
		LearnerID:          string(rec.LearnerID),
		CourseID:           string(rec.CourseID),
		Completion:         rec.Completion.Int(),
		ContentProgress:    make(map[string]int, len(rec.ContentProgress)),
		QuizScores:         rec.QuizScores,
		CompletionDate:     rec.CompletionDate,
		CertificateLocator: rec.CertificateLocator,
	}
	for k, v := range rec.ContentProgress {
		dto.ContentProgress[string(k)] = v
	}
	if !rec.EnrollmentDate.IsZero() {
		t := rec.EnrollmentDate
		dto.EnrollmentDate = &t
	}
	if !rec.LastAccessed.IsZero() {
		t := rec.LastAccessed
		dto.LastAccessed = &t
	}
	return dto
}

// achievementDTO is the wire shape of an earned badge.
type achievementDTO struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedAt    time.Time `json:"earned_at"`
}

func toAchievementDTOs(achievements []learner.Achievement) []achievementDTO {
	dtos := make([]achievementDTO, 0, len(achievements))
	for _, a := range achievements {
		dtos = append(dtos, achievementDTO{
			Title:       a.Title,
			Description: a.Description,
			Icon:        a.Icon,
			EarnedAt:    a.EarnedAt,
		})
	}
	return dtos
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"service": "arlearn-engine",
		"status":  "running",
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.handleHealth(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{}
	healthy := true

	if s.deps.Health != nil {
		for name, err := range s.deps.Health.Health(r.Context()) {
			if err != nil {
				components[name] = err.Error()
				healthy = false
			} else {
				components[name] = "ok"
			}
		}
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	writeJSON(w, r, status, map[string]interface{}{
		"status":     overall,
		"components": components,
		"uptime":     s.Uptime().String(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER LIFECYCLE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRegisterLearner(w http.ResponseWriter, r *http.Request) {
	var body struct {
		LearnerID string `json:"learner_id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.RegisterLearner.Handle(r.Context(), command.RegisterLearnerCommand{
		LearnerID: body.LearnerID,
		Name:      body.Name,
		Email:     body.Email,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyRegistered {
		status = http.StatusOK
	}

	writeJSON(w, r, status, map[string]interface{}{
		"learner_id":         string(result.Learner.ID),
		"name":               result.Learner.Name,
		"already_registered": result.AlreadyRegistered,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT & PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Enroll.Handle(r.Context(), command.EnrollCommand{
		LearnerID:     r.PathValue("id"),
		CourseID:      r.PathValue("courseID"),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	// Re-enrollment is a benign idempotent outcome, not a conflict error.
	status := http.StatusCreated
	if result.AlreadyEnrolled {
		status = http.StatusOK
	}

	writeJSON(w, r, status, map[string]interface{}{
		"record":           toProgressRecordDTO(result.Record),
		"already_enrolled": result.AlreadyEnrolled,
		"new_achievements": toAchievementDTOs(result.NewAchievements),
	})
}

func (s *Server) handleEnrollmentStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetProgress.Handle(r.Context(), query.GetProgressQuery{
		LearnerID: r.PathValue("id"),
		CourseID:  r.PathValue("courseID"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"enrolled":              result.Enrolled,
		"completion":            result.Record.Completion.Int(),
		"certificate_available": result.CertificateAvailable,
	})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetProgress.Handle(r.Context(), query.GetProgressQuery{
		LearnerID: r.PathValue("id"),
		CourseID:  r.PathValue("courseID"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"record":   toProgressRecordDTO(result.Record),
		"enrolled": result.Enrolled,
	})
}

func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Completion      int                 `json:"completion"`
		ContentProgress map[string]int      `json:"content_progress"`
		QuizScore       *progress.QuizScore `json:"quiz_score"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.UpdateProgress.Handle(r.Context(), command.UpdateProgressCommand{
		LearnerID:       r.PathValue("id"),
		CourseID:        r.PathValue("courseID"),
		Completion:      body.Completion,
		ContentProgress: body.ContentProgress,
		QuizScore:       body.QuizScore,
		CorrelationID:   getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	data := map[string]interface{}{
		"record":           toProgressRecordDTO(result.Record),
		"completed":        result.Completed,
		"clamped":          result.Clamped,
		"new_achievements": toAchievementDTOs(result.NewAchievements),
	}
	if result.CertificateLocator != "" {
		data["certificate_locator"] = result.CertificateLocator
	}

	// The ledger write committed; a failed certificate step degrades the
	// response to success-with-warning, never to an error.
	warning := ""
	if result.CertificateError != "" {
		warning = "certificate issuance failed: " + result.CertificateError
	}

	writeJSONWithWarning(w, r, http.StatusOK, data, warning)
}

func (s *Server) handleIssueCertificate(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.IssueCertificate.Handle(r.Context(), command.IssueCertificateCommand{
		LearnerID:     r.PathValue("id"),
		CourseID:      r.PathValue("courseID"),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	// Issuance is idempotent: a reused locator is a success, flagged.
	status := http.StatusCreated
	if result.Reused {
		status = http.StatusOK
	}

	writeJSON(w, r, status, map[string]interface{}{
		"certificate_locator": result.Locator,
		"reused":              result.Reused,
		"issued_at":           result.IssuedAt,
	})
}

func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.ListProgress.Handle(r.Context(), query.ListProgressQuery{
		LearnerID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	items := make([]map[string]interface{}, 0, len(result.Items))
	for _, item := range result.Items {
		row := map[string]interface{}{
			"course_id":    string(item.CourseID),
			"course_title": item.CourseTitle,
			"completion":   item.Completion,
			"completed":    item.Completed,
			"enrolled_at":  item.EnrollmentDate,
		}
		if item.CompletionDate != nil {
			row["completion_date"] = item.CompletionDate
		}
		if item.CertificateLocator != "" {
			row["certificate_locator"] = item.CertificateLocator
		}
		items = append(items, row)
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"items":             items,
		"total_courses":     result.TotalCourses,
		"completed_courses": result.CompletedCourses,
	})
}

func (s *Server) handleProgressHistory(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetProgressHistory.Handle(r.Context(), query.GetProgressHistoryQuery{
		LearnerID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	days := make([]map[string]interface{}, 0, len(result.Days))
	for _, d := range result.Days {
		days = append(days, map[string]interface{}{
			"date":              d.Date,
			"courses_touched":   d.CoursesTouched,
			"courses_completed": d.CoursesCompleted,
		})
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{"days": days})
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGAGEMENT & ANALYTICS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ContentType     string `json:"content_type"`
		Score           int    `json:"score"`
		DurationSeconds int    `json:"duration_seconds"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.RecordActivity.Handle(r.Context(), command.RecordActivityCommand{
		LearnerID:       r.PathValue("id"),
		ContentType:     body.ContentType,
		Score:           body.Score,
		DurationSeconds: body.DurationSeconds,
		CorrelationID:   getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	data := map[string]interface{}{
		"total_activities": result.Engagement.TotalActivities,
		"reclassified":     result.Reclassified,
		"new_achievements": toAchievementDTOs(result.NewAchievements),
		"recorded_at":      result.RecordedAt,
	}
	if result.Reclassified {
		data["analyzed_style"] = result.AnalyzedStyle.String()
		data["previous_style"] = result.PreviousStyle.String()
	}

	writeJSON(w, r, http.StatusOK, data)
}

func (s *Server) handleAnalyticsSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.deps.GetAnalyticsSnapshot.Handle(r.Context(), query.GetAnalyticsSnapshotQuery{
		LearnerID:   r.PathValue("id"),
		BypassCache: getQueryParamBool(r, "refresh"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, snapshot)
}

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.ListAchievements.Handle(r.Context(), query.ListAchievementsQuery{
		LearnerID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"earned":  toAchievementDTOs(result.Earned),
		"catalog": result.Catalog,
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetRecommendations.Handle(r.Context(), query.GetRecommendationsQuery{
		LearnerID: r.PathValue("id"),
		Limit:     getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	courses := make([]map[string]interface{}, 0, len(result.Courses))
	for _, c := range result.Courses {
		courses = append(courses, map[string]interface{}{
			"course_id": string(c.CourseID),
			"title":     c.Title,
		})
	}

	data := map[string]interface{}{
		"style":   result.Style.String(),
		"courses": courses,
	}
	if result.Reason != "" {
		data["reason"] = result.Reason
	}

	writeJSON(w, r, http.StatusOK, data)
}
