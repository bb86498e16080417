package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"github.com/soaringjerry/Solace/internal/middleware"
	"github.com/soaringjerry/Solace/internal/scoring"
	"github.com/soaringjerry/Solace/internal/services"
)

const maxBodyBytes = 1 << 20

type Deps struct {
	Store    Store
	Replier  services.Replier
	Crisis   *services.CrisisDetector
	Signer   services.TokenSigner
	TokenTTL time.Duration

	// AdminUsers may read /api/admin/stats.
	AdminUsers []string
}

type Router struct {
	auth        *services.AuthService
	assessments *services.AssessmentService
	dashboard   *services.DashboardService
	chat        *services.ChatService
	admin       *services.AdminService
}

func NewRouter(d Deps) *Router {
	if d.Store == nil {
		d.Store = newMemoryStore()
	}
	if d.Signer == nil {
		d.Signer = middleware.SignToken
	}
	return &Router{
		auth:        services.NewAuthService(d.Store, d.Signer, d.TokenTTL),
		assessments: services.NewAssessmentService(d.Store),
		dashboard:   services.NewDashboardService(d.Store),
		chat:        services.NewChatService(d.Store, d.Replier, d.Crisis),
		admin:       services.NewAdminService(d.Store, d.AdminUsers),
	}
}

// Register mounts every route on r. Everything under /api except
// register and login requires a bearer token.
func (rt *Router) Register(r *mux.Router) {
	r.HandleFunc("/health", rt.handleHealth).Methods(http.MethodGet)

	pub := r.PathPrefix("/api/auth").Subrouter()
	pub.HandleFunc("/register", rt.handleRegister).Methods(http.MethodPost)
	pub.HandleFunc("/login", rt.handleLogin).Methods(http.MethodPost)

	priv := r.PathPrefix("/api").Subrouter()
	priv.Use(middleware.WithAuth, middleware.RequireAuth)
	priv.HandleFunc("/auth/me", rt.handleMe).Methods(http.MethodGet)

	priv.HandleFunc("/assessments/submit", rt.handleSubmitAssessment).Methods(http.MethodPost)
	priv.HandleFunc("/assessments/history", rt.handleAssessmentHistory).Methods(http.MethodGet)

	priv.HandleFunc("/chat/message", rt.handleChatMessage).Methods(http.MethodPost)
	priv.HandleFunc("/chat/sessions", rt.handleChatSessions).Methods(http.MethodGet)
	priv.HandleFunc("/chat/history/{id}", rt.handleChatHistory).Methods(http.MethodGet)
	priv.HandleFunc("/chat/session/{id}", rt.handleDeleteSession).Methods(http.MethodDelete)

	priv.HandleFunc("/dashboard/stats", rt.handleDashboardStats).Methods(http.MethodGet)
	priv.HandleFunc("/dashboard/trends", rt.handleDashboardTrends).Methods(http.MethodGet)

	priv.HandleFunc("/admin/stats", rt.handleAdminStats).Methods(http.MethodGet)
}

// Handler returns a ready router. Path variables are matched on the
// escaped path so ids containing '/' survive.
func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter().UseEncodedPath()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	rt.Register(r)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		log.Printf("api: %s %s: %v", r.Method, r.URL.Path, err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	status := http.StatusBadRequest
	switch se.Code {
	case services.ErrorUnauthorized:
		status = http.StatusUnauthorized
	case services.ErrorForbidden:
		status = http.StatusForbidden
	case services.ErrorNotFound:
		status = http.StatusNotFound
	case services.ErrorConflict:
		status = http.StatusConflict
	case services.ErrorBadGateway:
		status = http.StatusBadGateway
	}
	writeDetail(w, status, se.Message)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return false
	}
	return true
}

func userID(r *http.Request) string {
	uid, _ := middleware.UserIDFromContext(r.Context())
	return uid
}

func pathID(r *http.Request) string {
	raw := mux.Vars(r)["id"]
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

// GET /health
func (rt *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "name": "Solace API"})
}

type tokenResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        *services.User `json:"user"`
}

func newTokenResponse(res *services.AuthResult) tokenResponse {
	return tokenResponse{AccessToken: res.Token, TokenType: "bearer", User: res.User}
}

// POST /api/auth/register {username, email, password}
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	res, err := rt.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTokenResponse(res))
}

// POST /api/auth/login {username, password}
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	res, err := rt.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTokenResponse(res))
}

// GET /api/auth/me
func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := rt.auth.Me(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type assessmentView struct {
	*services.Assessment
	SeverityInterpretation string `json:"severity_interpretation"`
}

func newAssessmentView(a *services.Assessment) assessmentView {
	return assessmentView{Assessment: a, SeverityInterpretation: scoring.PHQ9Severity(a.PHQ9Score).String()}
}

// POST /api/assessments/submit
func (rt *Router) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	var req services.SubmitAssessmentRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := rt.assessments.Submit(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAssessmentView(a))
}

// GET /api/assessments/history
func (rt *Router) handleAssessmentHistory(w http.ResponseWriter, r *http.Request) {
	list, err := rt.assessments.History(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]assessmentView, 0, len(list))
	for _, a := range list {
		out = append(out, newAssessmentView(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/chat/message {message, session_id?}
func (rt *Router) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req services.SendMessageRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := rt.chat.Send(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/chat/sessions
func (rt *Router) handleChatSessions(w http.ResponseWriter, r *http.Request) {
	list, err := rt.chat.Sessions(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/chat/history/{id}
func (rt *Router) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	msgs, err := rt.chat.History(r.Context(), userID(r), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// DELETE /api/chat/session/{id}
func (rt *Router) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := rt.chat.Delete(r.Context(), userID(r), pathID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Session deleted successfully"})
}

// GET /api/dashboard/stats
func (rt *Router) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	st, err := rt.dashboard.Stats(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GET /api/dashboard/trends
func (rt *Router) handleDashboardTrends(w http.ResponseWriter, r *http.Request) {
	points, err := rt.dashboard.Trends(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// GET /api/admin/stats
func (rt *Router) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	st, err := rt.admin.Stats(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
