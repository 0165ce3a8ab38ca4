package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ccccowo/imark-backend/internal/config"
	"github.com/ccccowo/imark-backend/internal/handler"
	"github.com/ccccowo/imark-backend/internal/middleware"
	"github.com/ccccowo/imark-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam         *handler.ExamHandler
	Question     *handler.QuestionHandler
	Media        *handler.MediaHandler
	Segmentation *handler.SegmentationHandler
	Grading      *handler.GradingHandler
	WS           *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Brotli for API payloads; the default skipper leaves /uploads alone.
	router.Use(middleware.Brotli())

	// Serve extracted answer crops and paper scans statically with
	// aggressive caching (1 year); the keys are immutable.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for AI grading requests (20 per minute per IP), so a
	// single client cannot flood the oracle queue.
	aiLimiter := middleware.NewRateLimiter(20, time.Minute)

	// ─── Teacher API (JWT) ─────────────────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(cfg.JWTSecret))
	{
		teacherAPI.GET("/exams", handlers.Exam.ListExams)
		teacherAPI.POST("/exams", handlers.Exam.CreateExam)
		teacherAPI.GET("/exams/:exam_id", handlers.Exam.GetExam)
		teacherAPI.DELETE("/exams/:exam_id", handlers.Exam.DeleteExam)
		teacherAPI.GET("/exams/:exam_id/examinees", handlers.Exam.ListExaminees)
		teacherAPI.GET("/exams/:exam_id/results", handlers.Exam.GetResults)

		teacherAPI.POST("/exams/:exam_id/paper", handlers.Media.UploadPaper)

		teacherAPI.GET("/exams/:exam_id/questions", handlers.Question.ListQuestions)
		teacherAPI.PUT("/exams/:exam_id/questions", handlers.Question.ReplaceTemplate)
		teacherAPI.POST("/exams/:exam_id/questions/keys", handlers.Question.AssignKeys)

		teacherAPI.POST("/exams/:exam_id/segment", handlers.Segmentation.Segment)
		teacherAPI.GET("/exams/:exam_id/questions/:question_id/answers", handlers.Grading.ListAnswersByQuestion)

		teacherAPI.GET("/answers/:answer_id", handlers.Grading.GetAnswer)
		teacherAPI.POST("/answers/grade", handlers.Grading.TeacherGrade)
		teacherAPI.POST("/answers/grade/ai", aiLimiter.Middleware(), handlers.Grading.RequestAIGrade)
	}

	// ─── WebSocket (token in query) ────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireTeacherWSAuth(cfg.JWTSecret))
	{
		ws.GET("/teacher/exams/:exam_id/progress", handlers.WS.GradingProgressStream)
	}

	return router
}
