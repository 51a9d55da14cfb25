package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cadence/api/internal/auth"
	"cadence/api/internal/document"
	"cadence/api/internal/export"
	"cadence/api/internal/metrics"
)

const (
	sessionKey   = "session"
	requestIDKey = "request_id"
	maxBodyBytes = 1 << 20
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	log        *zap.Logger
	engine     *gin.Engine
}

func NewHTTPServer(service *Service, corsOrigin string, log *zap.Logger) *HTTPServer {
	if log == nil {
		log = zap.NewNop()
	}
	s := &HTTPServer{service: service, corsOrigin: corsOrigin, log: log.Named("http")}
	s.engine = s.routes()
	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(cors.New(corsConfig(s.corsOrigin)))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/ready", s.handleReady)
	api.GET("/session", s.handleSession)
	api.POST("/session/login", s.handleLogin)
	api.POST("/session/logout", s.handleLogout)

	authed := api.Group("", s.requireSession())
	authed.GET("/updates/default", s.handleDefaultUpdate)
	authed.GET("/updates", s.handleListUpdates)
	authed.POST("/updates", s.handleSaveUpdate)
	authed.PUT("/updates/:id", s.handleSaveUpdate)
	authed.GET("/updates/:id", s.handleGetUpdate)
	authed.GET("/updates/:id/export", s.handleExport)
	authed.GET("/search", s.handleSearch)
	authed.POST("/enhance", s.handleEnhance)
	authed.POST("/sentiment", s.handleSentiment)

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})
	return r
}

func corsConfig(origin string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if origin == "" || origin == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = strings.Split(origin, ",")
	}
	return cfg
}

// requestLogger tags every request with an id, logs one line for it and
// records its latency.
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Header("Cache-Control", "no-store")

		started := time.Now()
		c.Next()
		elapsed := time.Since(started)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(status), elapsed)
		s.log.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Int64("duration_ms", elapsed.Milliseconds()),
		)
	}
}

func (s *HTTPServer) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			c.Abort()
			return
		}
		sess, err := s.service.SessionFromToken(c.Request.Context(), token)
		if err != nil {
			s.fail(c, err)
			c.Abort()
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) Session {
	sess, _ := c.MustGet(sessionKey).(Session)
	return sess
}

func (s *HTTPServer) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := s.service.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ok":     false,
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": "ready"})
}

func (s *HTTPServer) handleSession(c *gin.Context) {
	token, err := auth.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "userName": nil})
		return
	}
	sess, err := s.service.SessionFromToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "userName": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "userName": sess.UserName, "userId": sess.UserID, "email": sess.Email})
}

func (s *HTTPServer) handleLogin(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
		return
	}
	sess, err := s.service.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":    sess.Token,
		"userId":   sess.UserID,
		"userName": sess.UserName,
	})
}

func (s *HTTPServer) handleLogout(c *gin.Context) {
	if token, err := auth.BearerToken(c.GetHeader("Authorization")); err == nil {
		if err := s.service.Logout(c.Request.Context(), token); err != nil {
			s.log.Warn("logout failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *HTTPServer) handleDefaultUpdate(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.DefaultUpdate())
}

func (s *HTTPServer) handleListUpdates(c *gin.Context) {
	items, err := s.service.ListUpdates(c.Request.Context(), currentSession(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(items))
	for _, item := range items {
		out = append(out, gin.H{
			"id":        item.ID,
			"weekDate":  item.WeekDate,
			"teamName":  item.TeamName,
			"orgName":   item.OrgName,
			"status":    item.Status,
			"createdAt": item.CreatedAt,
			"updatedAt": item.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// handleSaveUpdate serves both POST /updates (id optional in the body) and
// PUT /updates/:id.
func (s *HTTPServer) handleSaveUpdate(c *gin.Context) {
	var body struct {
		ID       string          `json:"id"`
		Status   string          `json:"status"`
		Document json.RawMessage `json:"document"`
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil || json.Unmarshal(raw, &body) != nil {
		writeError(c, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
		return
	}
	doc, err := document.Parse(body.Document)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_BODY", "invalid document", nil)
		return
	}

	id := body.ID
	if param := c.Param("id"); param != "" {
		id = param
	}
	saved, err := s.service.SaveUpdate(c.Request.Context(), currentSession(c), SaveInput{
		UpdateID: id,
		Status:   body.Status,
		Document: doc,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	status := http.StatusOK
	if saved.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"id":        saved.ID,
		"weekDate":  saved.WeekDate,
		"created":   saved.Created,
		"createdAt": saved.CreatedAt,
		"updatedAt": saved.UpdatedAt,
		"document":  saved.Document,
	})
}

func (s *HTTPServer) handleGetUpdate(c *gin.Context) {
	update, err := s.service.GetUpdate(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        update.ID,
		"userId":    update.UserID,
		"weekDate":  update.WeekDate,
		"teamName":  update.TeamName,
		"orgName":   update.OrgName,
		"status":    update.Status,
		"createdAt": update.CreatedAt,
		"updatedAt": update.UpdatedAt,
		"document":  update.Document,
	})
}

func (s *HTTPServer) handleExport(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		s.fail(c, err)
		return
	}
	result, err := s.service.Export(c.Request.Context(), currentSession(c), c.Param("id"), format)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.MimeType, result.Data)
}

func (s *HTTPServer) handleSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		writeError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "q is required", nil)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit < 0 || limit > 100 {
		limit = 0
	}
	c.JSON(http.StatusOK, s.service.Search(c.Request.Context(), currentSession(c), query, limit))
}

type textBody struct {
	Text string `json:"text"`
}

func (s *HTTPServer) handleEnhance(c *gin.Context) {
	var body textBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
		return
	}
	text, err := s.service.Enhance(c.Request.Context(), body.Text)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (s *HTTPServer) handleSentiment(c *gin.Context) {
	var body textBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
		return
	}
	score, err := s.service.Sentiment(c.Request.Context(), body.Text)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": score})
}

// fail maps err to a response. Server errors are logged with the request id.
func (s *HTTPServer) fail(c *gin.Context, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	writeError(c, status, code, message, details)
}

func writeError(c *gin.Context, status int, code, message string, details any) {
	response := gin.H{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	c.JSON(status, response)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
