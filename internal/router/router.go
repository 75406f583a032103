package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studytracker/backend/internal/handler"
	"studytracker/backend/internal/middleware"
	"studytracker/backend/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	studyHandler *handler.StudyHandler,
	corsOrigins []string,
	log *zap.Logger,
) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	engine := gin.New()
	engine.Use(middleware.RequestLogger(log.Named("http")), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	store := api.Group("")
	store.Use(middleware.Auth(authService))

	store.GET("/subjects", studyHandler.ListSubjects)
	store.POST("/subjects", studyHandler.AddSubject)
	store.PUT("/subjects/:id", studyHandler.EditSubject)
	store.DELETE("/subjects/:id", studyHandler.RemoveSubject)
	store.GET("/subjects/:id/sessions", studyHandler.SubjectSessions)

	store.GET("/sessions", studyHandler.ListSessions)
	store.POST("/sessions", studyHandler.RecordSession)
	store.GET("/sessions/weekly", studyHandler.WeeklySessions)

	store.GET("/goal", studyHandler.GetGoal)
	store.PUT("/goal", studyHandler.SetGoal)
	store.PUT("/goal/time", studyHandler.SetTimeGoal)
	store.PUT("/goal/task", studyHandler.SetTaskGoal)

	return engine
}
