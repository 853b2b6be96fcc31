package handlers

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"go-usermanager/models"
	"go-usermanager/services"

	"github.com/gorilla/mux"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"list", "detail", "not_found", "form", "delete"}

// PageHandler renders the HTML console on top of the same service the JSON
// API uses.
type PageHandler struct {
	api   *UserHandler
	pages map[string]*template.Template
}

func NewPageHandler(api *UserHandler) (*PageHandler, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &PageHandler{api: api, pages: pages}, nil
}

func (h *PageHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.List).Methods(http.MethodGet).Name("page_list")
	r.HandleFunc("/reload", h.Reload).Methods(http.MethodPost).Name("page_reload")
	r.HandleFunc("/users/new", h.NewForm).Methods(http.MethodGet).Name("page_new")
	r.HandleFunc("/users", h.Create).Methods(http.MethodPost).Name("page_create")
	r.HandleFunc("/users/{id:[0-9]+}", h.Detail).Methods(http.MethodGet).Name("page_detail")
	r.HandleFunc("/users/{id:[0-9]+}/edit", h.EditForm).Methods(http.MethodGet).Name("page_edit")
	r.HandleFunc("/users/{id:[0-9]+}", h.Update).Methods(http.MethodPost).Name("page_update")
	r.HandleFunc("/users/{id:[0-9]+}/delete", h.ConfirmDelete).Methods(http.MethodGet).Name("page_confirm_delete")
	r.HandleFunc("/users/{id:[0-9]+}/delete", h.Delete).Methods(http.MethodPost).Name("page_delete")
}

type listView struct {
	Title     string
	Refresh   bool
	Spinner   bool
	Result    services.ListResult
	SortLinks map[string]string
	PrevLink  string
	NextLink  string
}

type userView struct {
	Title   string
	Refresh bool
	User    models.User
}

type formView struct {
	Title   string
	Refresh bool
	Action  string
	Submit  string
	Form    models.UserForm
	Errors  models.FieldErrors
}

func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	svc := h.api.svc
	svc.EnsureLoaded()

	q := parseListQuery(r)
	res := svc.List(q)

	v := listView{
		Title:     "User Management",
		Result:    res,
		SortLinks: make(map[string]string, 3),
	}
	// nothing to show yet: spinner page that polls until the load finishes
	if res.Loading && res.Total == 0 && !svc.State().Loaded {
		v.Refresh = true
		v.Spinner = true
	}

	for _, field := range []string{services.SortByName, services.SortByEmail, services.SortByCompany} {
		desc := q.SortBy == field && !q.Desc
		v.SortLinks[field] = listURL(q.Query, field, desc, 1)
	}
	if res.Page > 1 {
		v.PrevLink = listURL(q.Query, q.SortBy, q.Desc, res.Page-1)
	}
	if res.Page < res.Pages {
		v.NextLink = listURL(q.Query, q.SortBy, q.Desc, res.Page+1)
	}

	h.render(w, http.StatusOK, "list", v)
}

func (h *PageHandler) Reload(w http.ResponseWriter, r *http.Request) {
	// the list page shows the failure banner again if this one failed too
	_ = h.api.svc.Reload(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *PageHandler) Detail(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookup(w, r, true)
	if !ok {
		return
	}
	h.render(w, http.StatusOK, "detail", userView{Title: u.Name, User: u})
}

func (h *PageHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "form", formView{
		Title:  "Add New User",
		Action: "/users",
		Submit: "Add User",
	})
}

func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := parseUserForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.api.svc.Create(form)
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		h.render(w, http.StatusUnprocessableEntity, "form", formView{
			Title:  "Add New User",
			Action: "/users",
			Submit: "Add User",
			Form:   form,
			Errors: verr.Fields,
		})
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.api.recordChange(r, "CREATE", c)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *PageHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookup(w, r, false)
	if !ok {
		return
	}
	h.render(w, http.StatusOK, "form", editView(u, models.FormFromUser(u), nil))
}

func (h *PageHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookup(w, r, false)
	if !ok {
		return
	}

	form, err := parseUserForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.api.svc.Edit(u.ID, form)
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		h.render(w, http.StatusUnprocessableEntity, "form", editView(u, form, verr.Fields))
		return
	case errors.Is(err, services.ErrNotFound):
		h.render(w, http.StatusNotFound, "not_found", userView{Title: "User not found"})
		return
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.api.recordChange(r, "UPDATE", c)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *PageHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookup(w, r, false)
	if !ok {
		return
	}
	h.render(w, http.StatusOK, "delete", userView{Title: "Confirm Delete", User: u})
}

func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if c, ok := h.api.svc.Delete(id); ok {
		h.api.recordChange(r, "DELETE", c)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// lookup resolves the {id} of the request. With fallback the directory is
// asked when the store does not have the user; edit and delete only work on
// stored users. On failure the not-found page has already been written.
func (h *PageHandler) lookup(w http.ResponseWriter, r *http.Request, fallback bool) (models.User, bool) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return models.User{}, false
	}

	var u models.User
	if fallback {
		u, err = h.api.svc.Find(r.Context(), id)
	} else {
		var found bool
		u, found = h.api.svc.Stored(id)
		if !found {
			err = services.ErrNotFound
		}
	}
	if err != nil {
		h.render(w, http.StatusNotFound, "not_found", userView{Title: "User not found"})
		return models.User{}, false
	}
	return u, true
}

func (h *PageHandler) render(w http.ResponseWriter, code int, page string, data any) {
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.api.errs.Report(fmt.Errorf("render %s: %w", page, err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

func editView(u models.User, form models.UserForm, errs models.FieldErrors) formView {
	return formView{
		Title:  "Edit User: " + u.Name,
		Action: "/users/" + strconv.FormatInt(u.ID, 10),
		Submit: "Update User",
		Form:   form,
		Errors: errs,
	}
}

func parseUserForm(r *http.Request) (models.UserForm, error) {
	if err := r.ParseForm(); err != nil {
		return models.UserForm{}, err
	}
	return models.UserForm{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Phone:   r.PostFormValue("phone"),
		Website: r.PostFormValue("website"),
		Company: r.PostFormValue("company"),
		Address: r.PostFormValue("address"),
		City:    r.PostFormValue("city"),
	}, nil
}

func listURL(query, sortBy string, desc bool, page int) string {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	if sortBy != "" {
		v.Set("sort", sortBy)
	}
	if desc {
		v.Set("desc", "1")
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}
