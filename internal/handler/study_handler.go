package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "studytracker/backend/internal/errors"
	"studytracker/backend/internal/model"
	"studytracker/backend/internal/service"
)

type StudyHandler struct {
	studyService *service.StudyService
}

type addSubjectRequest struct {
	ID    string `json:"id" binding:"required"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type editSubjectRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type timeGoalRequest struct {
	Hours int64 `json:"hours"`
}

type taskGoalRequest struct {
	Tasks int64 `json:"tasks"`
}

func NewStudyHandler(studyService *service.StudyService) *StudyHandler {
	return &StudyHandler{studyService: studyService}
}

func (h *StudyHandler) AddSubject(c *gin.Context) {
	var req addSubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	subject, apiErr := h.studyService.AddSubject(c.Request.Context(), userID, model.Subject{
		ID:    req.ID,
		Name:  req.Name,
		Color: req.Color,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subject": subject})
}

func (h *StudyHandler) EditSubject(c *gin.Context) {
	var req editSubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	apiErr := h.studyService.EditSubject(c.Request.Context(), userID, model.Subject{
		ID:    c.Param("id"),
		Name:  req.Name,
		Color: req.Color,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c)
}

func (h *StudyHandler) RemoveSubject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if apiErr := h.studyService.RemoveSubject(c.Request.Context(), userID, c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c)
}

func (h *StudyHandler) ListSubjects(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	subjects, apiErr := h.studyService.Subjects(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": subjects})
}

func (h *StudyHandler) RecordSession(c *gin.Context) {
	var req model.StudySession
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if apiErr := h.studyService.RecordSession(c.Request.Context(), userID, req); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h *StudyHandler) ListSessions(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessions, apiErr := h.studyService.Sessions(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *StudyHandler) SubjectSessions(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessions, apiErr := h.studyService.SubjectSessions(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *StudyHandler) WeeklySessions(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	start, startErr := strconv.ParseInt(c.Query("start"), 10, 64)
	end, endErr := strconv.ParseInt(c.Query("end"), 10, 64)
	if startErr != nil || endErr != nil {
		writeError(c, apperrors.BadRequest("invalid_range", "start and end must be integer nanosecond timestamps"))
		return
	}

	sessions, apiErr := h.studyService.WeeklySessions(c.Request.Context(), userID, model.Timestamp(start), model.Timestamp(end))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *StudyHandler) GetGoal(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	goal, apiErr := h.studyService.DailyGoal(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal": model.GoalJSON{Goal: goal}})
}

func (h *StudyHandler) SetGoal(c *gin.Context) {
	var req model.GoalJSON
	if !bindJSON(c, &req) {
		return
	}
	h.setGoal(c, req.Goal)
}

func (h *StudyHandler) SetTimeGoal(c *gin.Context) {
	var req timeGoalRequest
	if !bindJSON(c, &req) {
		return
	}
	h.setGoal(c, model.TimeBased{TargetHours: req.Hours})
}

func (h *StudyHandler) SetTaskGoal(c *gin.Context) {
	var req taskGoalRequest
	if !bindJSON(c, &req) {
		return
	}
	h.setGoal(c, model.TaskBased{TargetSessions: req.Tasks})
}

func (h *StudyHandler) setGoal(c *gin.Context, goal model.Goal) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if apiErr := h.studyService.SetDailyGoal(c.Request.Context(), userID, goal); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c)
}
