package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go-usermanager/models"
	"go-usermanager/services"
	"go-usermanager/utils"

	"github.com/gorilla/mux"
)

type UserHandler struct {
	svc      *services.UserService
	audit    *utils.AuditLogger
	notifier *services.Notifier
	errs     *utils.ErrorReporter
}

func NewUserHandler(svc *services.UserService, audit *utils.AuditLogger, notifier *services.Notifier, errs *utils.ErrorReporter) *UserHandler {
	notifier.BindErrorSink(errs)

	return &UserHandler{
		svc:      svc,
		audit:    audit,
		notifier: notifier,
		errs:     errs,
	}
}

func (h *UserHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", h.State).Methods(http.MethodGet).Name("state")
	api.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet).Name("list_users")
	api.HandleFunc("/users/reload", h.ReloadUsers).Methods(http.MethodPost).Name("reload_users")
	api.HandleFunc("/users/{id:[0-9]+}", h.GetUser).Methods(http.MethodGet).Name("get_user")
	api.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost).Name("create_user")
	api.HandleFunc("/users/{id:[0-9]+}", h.UpdateUser).Methods(http.MethodPut).Name("update_user")
	api.HandleFunc("/users/{id:[0-9]+}", h.DeleteUser).Methods(http.MethodDelete).Name("delete_user")
}

// ListUsers starts the initial directory load on first use and answers with
// whatever the store holds right now.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	h.svc.EnsureLoaded()
	writeJSON(w, http.StatusOK, h.svc.List(parseListQuery(r)))
}

func (h *UserHandler) ReloadUsers(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Reload(r.Context())
	res := h.svc.List(parseListQuery(r))
	if err != nil {
		writeJSON(w, http.StatusBadGateway, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UserHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.State())
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	u, err := h.svc.Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.errs.Report(err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var form models.UserForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.svc.Create(form)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.recordChange(r, "CREATE", c)
	writeJSON(w, http.StatusCreated, c.User)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var form models.UserForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.svc.Edit(id, form)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.recordChange(r, "UPDATE", c)
	writeJSON(w, http.StatusOK, c.User)
}

// DeleteUser answers 204 whether or not the user existed.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if c, ok := h.svc.Delete(id); ok {
		h.recordChange(r, "DELETE", c)
	}

	w.WriteHeader(http.StatusNoContent)
}

// recordChange audits and announces a committed mutation. The revision is the
// one the store produced for c, not whatever the store is at now.
func (h *UserHandler) recordChange(r *http.Request, action string, c services.Change) {
	h.audit.Log(utils.AuditEvent{
		Action:    action,
		UserID:    c.User.ID,
		UserName:  c.User.Name,
		Revision:  c.Revision,
		RequestID: utils.RequestID(r.Context()),
	})
	h.notifier.Notify(action, c)
}

func writeServiceError(w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]models.FieldErrors{"errors": verr.Fields})
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseListQuery(r *http.Request) services.ListQuery {
	v := r.URL.Query()
	q := services.ListQuery{
		Query:  v.Get("q"),
		SortBy: v.Get("sort"),
		Desc:   v.Get("desc") == "1" || v.Get("desc") == "true",
	}
	q.Page, _ = strconv.Atoi(v.Get("page"))
	q.PageSize, _ = strconv.Atoi(v.Get("size"))
	return q
}

func parseID(r *http.Request) (int64, error) {
	idStr := mux.Vars(r)["id"]
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
