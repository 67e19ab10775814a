package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/fortune-master/internal/domain/chat"
	"github.com/yanqian/fortune-master/internal/domain/fortune"
	"github.com/yanqian/fortune-master/internal/domain/session"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	fortuneSvc fortune.Service
	sessionSvc session.Service
	chatSvc    chat.Service
	replier    chat.Replier
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(fortuneSvc fortune.Service, sessionSvc session.Service, chatSvc chat.Service, replier chat.Replier, logger *slog.Logger) *Handler {
	return &Handler{
		fortuneSvc: fortuneSvc,
		sessionSvc: sessionSvc,
		chatSvc:    chatSvc,
		replier:    replier,
		logger:     logger.With("component", "http.handler"),
	}
}

type aspectView struct {
	fortune.Aspect
	Glyph string `json:"glyph"`
}

type readingView struct {
	Title         string                `json:"title"`
	Summary       string                `json:"summary"`
	Aspects       []aspectView          `json:"aspects"`
	Advice        string                `json:"advice"`
	LuckyElements fortune.LuckyElements `json:"luckyElements"`
}

func newReadingView(r fortune.ReadingResult) readingView {
	aspects := make([]aspectView, 0, len(r.Aspects))
	for _, a := range r.Aspects {
		aspects = append(aspects, aspectView{Aspect: a, Glyph: fortune.Glyph(a.Icon)})
	}
	return readingView{
		Title:         r.Title,
		Summary:       r.Summary,
		Aspects:       aspects,
		Advice:        r.Advice,
		LuckyElements: r.LuckyElements,
	}
}

type sessionView struct {
	ID         string       `json:"id"`
	Mode       fortune.Mode `json:"mode"`
	View       session.View `json:"view"`
	Loading    bool         `json:"loading"`
	Result     *readingView `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
	Generation uint64       `json:"generation"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

func newSessionView(s session.State) sessionView {
	view := sessionView{
		ID:         s.ID,
		Mode:       s.Mode,
		View:       s.View(),
		Loading:    s.Loading,
		Error:      s.Error,
		Generation: s.Generation,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.Result != nil {
		rv := newReadingView(*s.Result)
		view.Result = &rv
	}
	return view
}

type fortuneRequest struct {
	Profile  fortune.UserProfile `json:"profile"`
	Mode     string              `json:"mode"`
	Question string              `json:"question"`
}

type createSessionRequest struct {
	Mode string `json:"mode"`
}

type switchModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type submitRequest struct {
	Profile  fortune.UserProfile `json:"profile"`
	Question string              `json:"question"`
}

type historyEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type chatRequest struct {
	Message string         `json:"message"`
	History []historyEntry `json:"history"`
}

type chatMessageRequest struct {
	Message string `json:"message"`
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListModes returns the mode catalog for the menu.
func (h *Handler) ListModes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"modes": fortune.Modes()})
}

// RequestFortune runs a single reading without session state.
func (h *Handler) RequestFortune(c *gin.Context) {
	var req fortuneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	mode, err := fortune.ParseMode(req.Mode)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}
	profile, err := fortune.ValidateProfile(req.Profile)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}

	result, err := h.fortuneSvc.RequestFortune(c.Request.Context(), fortune.Request{Profile: profile, Mode: mode, Question: req.Question})
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, newReadingView(result))
}

// CreateSession opens a reading screen.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	var mode fortune.Mode
	if strings.TrimSpace(req.Mode) != "" {
		parsed, err := fortune.ParseMode(req.Mode)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
			return
		}
		mode = parsed
	}

	state, err := h.sessionSvc.Create(c.Request.Context(), mode)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusCreated, newSessionView(state))
}

// GetSession returns the current reading screen.
func (h *Handler) GetSession(c *gin.Context) {
	state, err := h.sessionSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, newSessionView(state))
}

// SwitchMode changes the active mode and clears any result.
func (h *Handler) SwitchMode(c *gin.Context) {
	var req switchModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	mode, err := fortune.ParseMode(req.Mode)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}

	state, err := h.sessionSvc.SwitchMode(c.Request.Context(), c.Param("id"), mode)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, newSessionView(state))
}

// SubmitSession requests a reading for the session's current mode.
func (h *Handler) SubmitSession(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	state, err := h.sessionSvc.Submit(c.Request.Context(), c.Param("id"), req.Profile, req.Question)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, newSessionView(state))
}

// ResetSession returns the session to the form.
func (h *Handler) ResetSession(c *gin.Context) {
	state, err := h.sessionSvc.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, newSessionView(state))
}

// Chat answers a message against a caller supplied history.
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "message is required", nil))
		return
	}
	history := make(chat.Transcript, 0, len(req.History))
	for _, entry := range req.History {
		history = append(history, chat.Entry{Role: chat.ParseRole(entry.Role), Text: entry.Text})
	}

	reply := h.replier.Reply(c.Request.Context(), message, history)
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// OpenChat starts a chat widget conversation.
func (h *Handler) OpenChat(c *gin.Context) {
	sess, err := h.chatSvc.Open(c.Request.Context())
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// GetChat returns the transcript of a conversation.
func (h *Handler) GetChat(c *gin.Context) {
	sess, err := h.chatSvc.Transcript(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, sess)
}

// SendChat appends a message and the master's answer.
func (h *Handler) SendChat(c *gin.Context) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	sess, reply, err := h.chatSvc.Send(c.Request.Context(), c.Param("id"), req.Message)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply, "session": sess})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
