package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Joseda-hg/riel/internal/app"
	"github.com/Joseda-hg/riel/internal/export"
	"github.com/Joseda-hg/riel/internal/imaging"
	"github.com/Joseda-hg/riel/internal/model"
	"github.com/Joseda-hg/riel/internal/view"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	StatusOk   = "ok"
	StatusDown = "down"

	healthDBTimeout = 2 * time.Second
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server is the browser front end. It is attached to the App as a view-port
// so storage and file-size warnings are shown on the next page load.
type Server struct {
	app    *app.App
	db     Pinger
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	flash []string
}

type indexData struct {
	Page        app.Page
	Flash       []string
	Filters     []model.FilterMode
	Categories  []string
	Placeholder string
}

type healthResponse struct {
	Status            string `json:"status"`
	Database          string `json:"database"`
	Tasks             int    `json:"tasks"`
	CurrentSystemTime string `json:"current_system_time"`
}

func NewServer(a *app.App, db Pinger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.L()
	}
	s := &Server{app: a, db: db, logger: logger, now: time.Now}
	a.Attach(s)
	return s
}

func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), GinZapMiddleware(s.logger))
	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.tmpl")))

	r.GET("/", s.indexHandler)
	r.POST("/tasks", s.createHandler)
	r.POST("/tasks/:id/toggle", s.toggleHandler)
	r.GET("/tasks/:id/delete", s.confirmDeleteHandler)
	r.POST("/tasks/:id/delete", s.deleteHandler)
	r.GET("/tasks/:id/photo", s.photoHandler)
	r.GET("/export/:format", s.exportHandler)

	api := r.Group("/api")
	{
		api.GET("/tasks", s.apiTasksHandler)
		api.GET("/stats", s.apiStatsHandler)
		api.GET("/health", s.healthHandler)
	}
	return r
}

func (s *Server) RenderList(view.List)   {}
func (s *Server) RenderStats(view.Stats) {}

func (s *Server) Warn(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash = append(s.flash, message)
}

func (s *Server) takeFlash() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	flash := s.flash
	s.flash = nil
	return flash
}

func (s *Server) indexHandler(c *gin.Context) {
	if mode, ok := c.GetQuery("filter"); ok {
		s.dispatch(c, app.FilterEvent{Mode: model.FilterMode(mode)})
	}
	if query, ok := c.GetQuery("q"); ok {
		s.dispatch(c, app.SearchEvent{Query: query})
	}

	c.HTML(http.StatusOK, "index.tmpl", indexData{
		Page:        s.app.Page(),
		Flash:       s.takeFlash(),
		Filters:     model.FilterModes,
		Categories:  model.Categories,
		Placeholder: view.EmptyPlaceholder,
	})
}

func (s *Server) createHandler(c *gin.Context) {
	form := app.Form{
		Title:    c.PostForm("title"),
		Desc:     c.PostForm("desc"),
		Category: c.PostForm("category"),
		Time:     c.PostForm("time"),
		Location: c.PostForm("location"),
	}

	if header, err := c.FormFile("photo"); err == nil {
		s.dispatch(c, app.FileEvent{Name: header.Filename, Size: header.Size})
		photo, err := readUpload(header)
		if err != nil {
			s.logger.Warn("read uploaded photo", zap.String("name", header.Filename), zap.Error(err))
		}
		form.Photo = photo
	}

	s.dispatch(c, app.SubmitEvent{Form: form})
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) toggleHandler(c *gin.Context) {
	recordEvent(c, "ToggleEvent")
	result := s.app.Toggle(c.Request.Context(), c.Param("id"))
	if !result.Found {
		writeError(c, http.StatusNotFound, "task not found")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) confirmDeleteHandler(c *gin.Context) {
	task, ok := s.app.Store().Get(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "task not found")
		return
	}
	c.HTML(http.StatusOK, "confirm.tmpl", gin.H{
		"Prompt": app.DeletePrompt,
		"Task":   task,
	})
}

func (s *Server) deleteHandler(c *gin.Context) {
	confirmed := c.PostForm("confirm") == "yes"
	s.dispatch(c, app.DeleteEvent{
		ID:      c.Param("id"),
		Confirm: app.ConfirmFunc(func(string) bool { return confirmed }),
	})
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) photoHandler(c *gin.Context) {
	task, ok := s.app.Store().Get(c.Param("id"))
	if !ok || !task.HasPhoto() {
		writeError(c, http.StatusNotFound, "photo not found")
		return
	}
	mimeType, data, err := imaging.DecodeDataURL(task.Photo)
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "stored photo is unreadable")
		return
	}
	c.Data(http.StatusOK, mimeType, data)
}

func (s *Server) exportHandler(c *gin.Context) {
	format, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		writeError(c, http.StatusNotFound, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, s.app.Store().Tasks(), s.now()); err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "export failed")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(format)))
	c.Data(http.StatusOK, export.ContentType(format), buf.Bytes())
}

// apiTasksHandler projects without touching the App's filter or search.
func (s *Server) apiTasksHandler(c *gin.Context) {
	tasks := s.app.Store().Tasks()
	mode := model.ParseFilterMode(c.Query("filter"))
	list := view.Build(view.Project(tasks, mode, c.Query("q")))
	list.Filter = mode
	list.Query = view.NormalizeQuery(c.Query("q"))
	c.JSON(http.StatusOK, gin.H{
		"filter": mode,
		"list":   list,
		"stats":  view.ComputeStats(tasks),
	})
}

func (s *Server) apiStatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, view.ComputeStats(s.app.Store().Tasks()))
}

func (s *Server) healthHandler(c *gin.Context) {
	statusCode := http.StatusOK
	response := healthResponse{
		Status:            StatusOk,
		Database:          StatusOk,
		Tasks:             s.app.Store().Len(),
		CurrentSystemTime: s.now().Format("2006-01-02 15:04:05"),
	}
	if !s.checkConnectionToDatabase(c.Request.Context()) {
		statusCode = http.StatusInternalServerError
		response.Status = StatusDown
		response.Database = StatusDown
	}
	c.JSON(statusCode, response)
}

func (s *Server) checkConnectionToDatabase(ctx context.Context) bool {
	if s.db == nil {
		return false
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, healthDBTimeout)
	defer cancel()
	return s.db.PingContext(timeoutCtx) == nil
}

func (s *Server) dispatch(c *gin.Context, event any) {
	name := strings.TrimPrefix(fmt.Sprintf("%T", event), "app.")
	recordEvent(c, name)
	if err := s.app.Dispatch(c.Request.Context(), event); err != nil {
		_ = c.Error(err)
		s.logger.Error("dispatch", zap.String("event", name), zap.Error(err))
	}
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
