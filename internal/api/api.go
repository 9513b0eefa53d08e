package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spendlog/spendlog/internal/accounts"
	"github.com/spendlog/spendlog/internal/ledger"
	"github.com/spendlog/spendlog/internal/session"
)

// ErrInvalidAmount reports a non-numeric amount on a form submission.
var ErrInvalidAmount = errors.New("api: amount must be a number")

const identityKey = "identity"

type Handler struct {
	accounts *accounts.Service
	ledger   *ledger.Service
	sessions *session.Manager

	cookieName   string
	secureCookie bool
	logger       *zap.Logger
}

func NewHandler(accountsSvc *accounts.Service, ledgerSvc *ledger.Service, sessions *session.Manager, cookieName string, secureCookie bool, logger *zap.Logger) *Handler {
	if cookieName == "" {
		cookieName = "session_token"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		accounts:     accountsSvc,
		ledger:       ledgerSvc,
		sessions:     sessions,
		cookieName:   cookieName,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/signup", h.handleSignup)
	router.POST("/login", h.handleLogin)
	router.GET("/logout", h.handleLogout)

	// Expense routes resolve the session once; the identity is passed
	// explicitly into ledger calls from there.
	authed := router.Group("/", h.resolveIdentity())
	authed.POST("/save", h.handleSave)
	authed.GET("/edit/:id", h.handleGetExpense)
	authed.POST("/edit/:id", h.handleUpdateExpense)
	authed.POST("/expenses/:id/update", h.handleUpdateExpenseChecked)
	authed.POST("/delete/:id", h.handleDeleteExpense)
	authed.GET("/expenses", h.handleListExpenses)
	authed.GET("/dashboard", h.handleDashboard)
}

// resolveIdentity turns the session cookie into a username in the gin
// context. Requests without a valid session proceed with an empty
// identity; each handler decides whether that is acceptable.
func (h *Handler) resolveIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(h.cookieName)
		if err != nil {
			c.Next()
			return
		}

		username, err := h.sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				h.logger.Warn("session resolve failed", zap.Error(err))
			}
			c.Next()
			return
		}

		c.Set(identityKey, username)
		c.Next()
	}
}

func identityFrom(c *gin.Context) string {
	return c.GetString(identityKey)
}

func (h *Handler) handleSignup(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	confirm := c.PostForm("confirm_password")

	if password != confirm {
		writeError(c, http.StatusBadRequest, "passwords don't match", errors.New("password confirmation mismatch"))
		return
	}

	_, err := h.accounts.CreateAccount(c.Request.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrUsernameRequired), errors.Is(err, accounts.ErrPasswordRequired):
			writeError(c, http.StatusBadRequest, err.Error(), err)
		case errors.Is(err, accounts.ErrDuplicateUsername):
			writeError(c, http.StatusBadRequest, "username already taken", err)
		case errors.Is(err, accounts.ErrStoreUnavailable):
			h.storeUnavailable(c, err)
		default:
			writeError(c, http.StatusInternalServerError, "failed to sign up", err)
		}
		return
	}

	h.logger.Info("account created", zap.String("username", username))
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) handleLogin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := h.accounts.VerifyCredentials(c.Request.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrUserNotFound):
			writeError(c, http.StatusUnauthorized, "username does not exist", err)
		case errors.Is(err, accounts.ErrInvalidPassword):
			writeError(c, http.StatusUnauthorized, "incorrect password", err)
		case errors.Is(err, accounts.ErrStoreUnavailable):
			h.storeUnavailable(c, err)
		default:
			writeError(c, http.StatusInternalServerError, "failed to log in", err)
		}
		return
	}

	token, err := h.sessions.Create(c.Request.Context(), user.Username)
	if err != nil {
		h.storeUnavailable(c, err)
		return
	}

	h.setSessionCookie(c, token, int(h.sessions.TTL().Seconds()))
	h.logger.Info("login", zap.String("username", user.Username))
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *Handler) handleLogout(c *gin.Context) {
	if token, err := c.Cookie(h.cookieName); err == nil {
		if err := h.sessions.Destroy(c.Request.Context(), token); err != nil {
			h.logger.Warn("session destroy failed", zap.Error(err))
		}
	}

	h.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) handleSave(c *gin.Context) {
	owner := identityFrom(c)
	if owner == "" {
		// Browser flow: unauthenticated saves bounce to the login page.
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	fields, err := expenseFieldsFrom(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	expense, err := h.ledger.Add(c.Request.Context(), owner, fields)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrUnauthenticated):
			writeError(c, http.StatusUnauthorized, "you must be logged in to save expenses", err)
		case errors.Is(err, ledger.ErrStoreUnavailable):
			h.storeUnavailable(c, err)
		default:
			writeError(c, http.StatusInternalServerError, "failed to add expense", err)
		}
		return
	}

	h.logger.Info("expense added",
		zap.String("id", expense.ID),
		zap.String("owner", owner),
		zap.String("category", expense.Category))
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *Handler) handleGetExpense(c *gin.Context) {
	expense, err := h.ledger.Get(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

func (h *Handler) handleUpdateExpense(c *gin.Context) {
	fields, err := expenseFieldsFrom(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	if err := h.ledger.Update(c.Request.Context(), identityFrom(c), c.Param("id"), fields); err != nil {
		h.writeLedgerError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// handleUpdateExpenseChecked is the second update binding; it verifies the
// record exists before writing and reports a miss instead of redirecting.
func (h *Handler) handleUpdateExpenseChecked(c *gin.Context) {
	owner := identityFrom(c)
	id := c.Param("id")

	if _, err := h.ledger.Get(c.Request.Context(), owner, id); err != nil {
		h.writeLedgerError(c, err)
		return
	}

	fields, err := expenseFieldsFrom(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	if err := h.ledger.Update(c.Request.Context(), owner, id, fields); err != nil {
		h.writeLedgerError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *Handler) handleDeleteExpense(c *gin.Context) {
	if err := h.ledger.Delete(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		h.writeLedgerError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *Handler) handleListExpenses(c *gin.Context) {
	h.listExpenses(c, c.Query("category"))
}

func (h *Handler) handleDashboard(c *gin.Context) {
	if identityFrom(c) == "" {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	h.listExpenses(c, "")
}

func (h *Handler) listExpenses(c *gin.Context, category string) {
	result, err := h.ledger.List(c.Request.Context(), category)
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"expenses":   result.Expenses,
		"categories": result.Categories,
	})
}

// expenseFieldsFrom parses the shared amount/category/description form
// fields. A malformed amount is a caller error, never a crash.
func expenseFieldsFrom(c *gin.Context) (ledger.Fields, error) {
	amountRaw := strings.TrimSpace(c.PostForm("amount"))
	amount, err := strconv.ParseFloat(amountRaw, 64)
	if err != nil {
		return ledger.Fields{}, ErrInvalidAmount
	}

	return ledger.Fields{
		Amount:      amount,
		Category:    c.PostForm("category"),
		Description: c.PostForm("description"),
	}, nil
}

func (h *Handler) writeLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrExpenseNotFound):
		writeError(c, http.StatusNotFound, "expense not found", err)
	case errors.Is(err, ledger.ErrUnauthenticated):
		writeError(c, http.StatusUnauthorized, "you must be logged in", err)
	case errors.Is(err, ledger.ErrStoreUnavailable):
		h.storeUnavailable(c, err)
	default:
		writeError(c, http.StatusInternalServerError, "internal error", err)
	}
}

func (h *Handler) storeUnavailable(c *gin.Context, err error) {
	h.logger.Error("store unavailable", zap.Error(err))
	writeError(c, http.StatusServiceUnavailable, "store unavailable, try again later", err)
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, maxAge, "/", "", h.secureCookie, true)
}

func writeError(c *gin.Context, status int, message string, err error) {
	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
