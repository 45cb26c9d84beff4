package handler

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"phishguard/internal/config"
	"phishguard/internal/model"
	"phishguard/internal/service"
	"phishguard/internal/storage"
	"phishguard/internal/utils"
)

// Ledger is what the handlers need from the scan-history side of the
// persistence backend.
type Ledger interface {
	AppendScan(ctx context.Context, ownerID uuid.UUID, v model.Verdict) (*model.HistoryEntry, error)
	ListScans(ctx context.Context, ownerID uuid.UUID, f model.HistoryFilter, page model.Page) ([]model.HistoryEntry, error)
	CountScans(ctx context.Context, ownerID uuid.UUID, f model.HistoryFilter) (int, error)
}

// UserStore is the profile/auth side of the persistence backend.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, preferences map[string]any) error
}

type Handler struct {
	Store        *storage.Storage
	Ledger       Ledger
	Users        UserStore
	Orchestrator *service.Orchestrator
	Recents      *service.Recents
	Insight      *service.InsightService
	Config       *config.Config
}

func NewHandler(store *storage.Storage, ledger Ledger, users UserStore,
	orch *service.Orchestrator, recents *service.Recents,
	insight *service.InsightService, cfg *config.Config) *Handler {
	return &Handler{
		Store:        store,
		Ledger:       ledger,
		Users:        users,
		Orchestrator: orch,
		Recents:      recents,
		Insight:      insight,
		Config:       cfg,
	}
}

// === Middleware ===

const sessionCookie = "session_id"

func (h *Handler) LoginRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			return c.Redirect(http.StatusFound, "/login?next="+c.Request().URL.Path)
		}
		sess, err := h.Store.GetSession(c.Request().Context(), cookie.Value)
		if err != nil || sess == nil {
			return c.Redirect(http.StatusFound, "/login?next="+c.Request().URL.Path)
		}
		c.Set("session", sess)
		return next(c)
	}
}

func currentSession(c echo.Context) *storage.Session {
	if sess, ok := c.Get("session").(*storage.Session); ok {
		return sess
	}
	return nil
}

// === Routes ===

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	sess := currentSession(c)

	entries, err := h.Ledger.ListScans(ctx, sess.UserID, model.HistoryFilter{}, model.Page{})
	if err != nil {
		utils.Log.Error("dashboard: history load failed", utils.Field("error", err.Error()))
	}
	stats := service.ComputeStats(entries)

	status, err := h.Store.GetBackendStatus(ctx)
	if err != nil {
		utils.Log.Warn("dashboard: backend status unavailable", utils.Field("error", err.Error()))
	}

	return c.Render(http.StatusOK, "dashboard.html", map[string]interface{}{
		"email":   sess.Email,
		"stats":   stats,
		"rate":    stats.PhishingRate(),
		"recent":  h.Recents.For(sess.UserID.String()).List(),
		"backend": status,
	})
}

func (h *Handler) ScanPage(c echo.Context) error {
	sess := currentSession(c)

	active := model.ModelPrimary
	if user, err := h.Users.GetUser(c.Request().Context(), sess.UserID); err == nil {
		active = user.DefaultModel()
	}

	return c.Render(http.StatusOK, "scan.html", map[string]interface{}{
		"active_model": active,
	})
}

// Scan runs one scan and renders the result partial (HTMX target). The
// verdict is cached and shown regardless of ledger outcome; a failed
// append degrades to a warning on the partial.
func (h *Handler) Scan(c echo.Context) error {
	ctx := c.Request().Context()
	sess := currentSession(c)

	m, err := model.ParseModelID(c.FormValue("model"))
	if err != nil {
		return c.HTML(http.StatusOK, "<div class='alert alert-warning'>Unknown model selection.</div>")
	}

	verdict, err := h.Orchestrator.Scan(ctx, c.FormValue("url"), m)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			return c.HTML(http.StatusOK, "<div class='alert alert-warning'>Please enter a valid URL.</div>")
		case errors.Is(err, service.ErrScanTimeout):
			utils.Log.Warn("scan timed out", utils.Field("user", sess.UserID), utils.Field("error", err.Error()))
			return c.HTML(http.StatusOK, "<div class='alert alert-danger'>Error scanning URL. Please try again.</div>")
		default:
			utils.Log.Error("scan failed", utils.Field("user", sess.UserID), utils.Field("error", err.Error()))
			return c.HTML(http.StatusOK, "<div class='alert alert-danger'>Error scanning URL. Please try again.</div>")
		}
	}

	h.Recents.For(sess.UserID.String()).Push(*verdict)

	warning := ""
	if _, appendErr := h.Ledger.AppendScan(ctx, sess.UserID, *verdict); appendErr != nil {
		utils.Log.Warn("history append failed", utils.Field("user", sess.UserID), utils.Field("error", appendErr.Error()))
		warning = "Scan completed, but the result could not be saved to your history."
	}

	var insight *service.DomainInsight
	if h.Insight != nil {
		insightCtx, cancel := context.WithTimeout(ctx, 4*time.Second)
		insight = h.Insight.Lookup(insightCtx, verdict.URL)
		cancel()
	}

	return c.Render(http.StatusOK, "scan_result.html", map[string]interface{}{
		"verdict": verdict,
		"warning": warning,
		"insight": insight,
	})
}

func (h *Handler) BulkPage(c echo.Context) error {
	return c.Render(http.StatusOK, "bulk.html", nil)
}

func (h *Handler) historyQuery(c echo.Context) (model.HistoryFilter, model.Page, int) {
	filter := model.HistoryFilter{
		Text:  c.QueryParam("q"),
		Label: model.ParseLabelFilter(c.QueryParam("label")),
	}

	pageNum, _ := strconv.Atoi(c.QueryParam("page"))
	if pageNum < 1 {
		pageNum = 1
	}
	limit := h.Config.HistoryPageSize
	page := model.Page{Offset: (pageNum - 1) * limit, Limit: limit}
	return filter, page, pageNum
}

func (h *Handler) History(c echo.Context) error {
	ctx := c.Request().Context()
	sess := currentSession(c)

	filter, page, pageNum := h.historyQuery(c)

	entries, err := h.Ledger.ListScans(ctx, sess.UserID, filter, page)
	if err != nil {
		utils.Log.Error("history list failed", utils.Field("error", err.Error()))
		return c.Render(http.StatusInternalServerError, "error.html", map[string]interface{}{
			"Code": 500, "Message": "Could not load scan history",
		})
	}

	total, err := h.Ledger.CountScans(ctx, sess.UserID, filter)
	if err != nil {
		total = len(entries)
	}

	totalPages := (total + page.Limit - 1) / page.Limit
	return c.Render(http.StatusOK, "history.html", map[string]interface{}{
		"entries":     entries,
		"q":           filter.Text,
		"label":       string(filter.Label),
		"page":        pageNum,
		"total":       total,
		"total_pages": totalPages,
	})
}

// ExportCSV streams the currently filtered history view. encoding/csv
// quotes fields containing the delimiter, so URLs with commas survive a
// round trip.
func (h *Handler) ExportCSV(c echo.Context) error {
	ctx := c.Request().Context()
	sess := currentSession(c)

	filter := model.HistoryFilter{
		Text:  c.QueryParam("q"),
		Label: model.ParseLabelFilter(c.QueryParam("label")),
	}

	entries, err := h.Ledger.ListScans(ctx, sess.UserID, filter, model.Page{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not load history"})
	}

	filename := fmt.Sprintf("phishing-scan-history-%s.csv", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment;filename="+filename)
	c.Response().WriteHeader(http.StatusOK)

	writer := csv.NewWriter(c.Response().Writer)
	defer writer.Flush()

	_ = writer.Write([]string{"URL", "Status", "Confidence", "Model", "Scan Date"})
	for _, e := range entries {
		_ = writer.Write([]string{
			e.Verdict.URL,
			e.Verdict.Label(),
			fmt.Sprintf("%d%%", e.Verdict.ConfidencePercent()),
			e.Verdict.Model.Label(),
			e.Verdict.ProducedAt.Local().Format("1/2/2006, 3:04:05 PM"),
		})
	}
	return nil
}

// HistoryChanges returns the verdict-to-verdict diffs for one URL.
func (h *Handler) HistoryChanges(c echo.Context) error {
	ctx := c.Request().Context()
	sess := currentSession(c)

	target := c.QueryParam("url")
	if target == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url parameter required"})
	}

	entries, err := h.Ledger.ListScans(ctx, sess.UserID, model.HistoryFilter{Text: target}, model.Page{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	// The filter is a substring match; keep exact URL hits only.
	var exact []model.HistoryEntry
	for _, e := range entries {
		if e.Verdict.URL == target {
			exact = append(exact, e)
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"url":     target,
		"scans":   len(exact),
		"changes": service.ChangeLog(exact),
	})
}

func (h *Handler) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	sess := currentSession(c)

	if c.Request().Method == http.MethodPost {
		fullName := c.FormValue("full_name")
		m, err := model.ParseModelID(c.FormValue("default_model"))
		if err != nil {
			m = model.ModelPrimary
		}
		prefs := map[string]any{"default_model": string(m)}
		if err := h.Users.UpdateProfile(ctx, sess.UserID, fullName, prefs); err != nil {
			utils.Log.Error("profile update failed", utils.Field("error", err.Error()))
		}
		return c.Redirect(http.StatusFound, "/profile")
	}

	user, err := h.Users.GetUser(ctx, sess.UserID)
	if err != nil {
		return c.Render(http.StatusInternalServerError, "error.html", map[string]interface{}{
			"Code": 500, "Message": "Could not load profile",
		})
	}

	return c.Render(http.StatusOK, "profile.html", map[string]interface{}{
		"user":          user,
		"default_model": user.DefaultModel(),
	})
}

func (h *Handler) Education(c echo.Context) error {
	return c.Render(http.StatusOK, "education.html", nil)
}

// === Auth ===

func (h *Handler) Login(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, "login.html", nil)
	}

	ctx := c.Request().Context()
	email := c.FormValue("email")
	password := c.FormValue("password")

	user, err := h.Users.GetUserByEmail(ctx, email)
	if err != nil {
		return c.Render(http.StatusOK, "login.html", map[string]interface{}{"error": "Invalid email or password"})
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return c.Render(http.StatusOK, "login.html", map[string]interface{}{"error": "Invalid email or password"})
	}

	token, err := h.Store.CreateSession(ctx, storage.Session{UserID: user.ID, Email: user.Email}, h.Config.SessionTTL)
	if err != nil {
		utils.Log.Error("session create failed", utils.Field("error", err.Error()))
		return c.Render(http.StatusOK, "login.html", map[string]interface{}{"error": "Sign in is unavailable right now"})
	}

	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	next := c.QueryParam("next")
	if next == "" || next[0] != '/' {
		next = "/"
	}
	return c.Redirect(http.StatusFound, next)
}

func (h *Handler) Signup(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, "signup.html", nil)
	}

	ctx := c.Request().Context()
	email := c.FormValue("email")
	fullName := c.FormValue("full_name")
	password := c.FormValue("password")

	if !utils.IsValidEmail(email) {
		return c.Render(http.StatusOK, "signup.html", map[string]interface{}{"error": "Please enter a valid email address"})
	}
	if len(password) < 8 {
		return c.Render(http.StatusOK, "signup.html", map[string]interface{}{"error": "Password must be at least 8 characters"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return c.Render(http.StatusOK, "signup.html", map[string]interface{}{"error": "Sign up is unavailable right now"})
	}

	user := &model.User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		Preferences:  map[string]any{"default_model": string(model.ModelPrimary)},
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Users.CreateUser(ctx, user); err != nil {
		utils.Log.Warn("signup failed", utils.Field("email", email), utils.Field("error", err.Error()))
		return c.Render(http.StatusOK, "signup.html", map[string]interface{}{"error": "That email address is already registered"})
	}

	return c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if sess, sessErr := h.Store.GetSession(c.Request().Context(), cookie.Value); sessErr == nil && sess != nil {
			h.Recents.Drop(sess.UserID.String())
		}
		_ = h.Store.DeleteSession(c.Request().Context(), cookie.Value)
	}
	c.SetCookie(&http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	return c.Redirect(http.StatusFound, "/login")
}
