package handler

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"carsearch_frontend/internal/search/controller"
	"carsearch_frontend/internal/search/table"
	"carsearch_frontend/internal/search/transport"
	"carsearch_frontend/platform/apperr"
	"carsearch_frontend/platform/config"
	"carsearch_frontend/platform/httpkit"
	"carsearch_frontend/platform/logger"
	"carsearch_frontend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	contextSessionKey = "searchSession"
)

//go:embed templates/page.html
var pageFS embed.FS

var pageTemplate = template.Must(template.ParseFS(pageFS, "templates/page.html"))

type Handler struct {
	store   *controller.Store
	val     *validator.Validator
	log     *logger.Logger
	session config.SessionConfig
}

func New(store *controller.Store, val *validator.Validator, session config.SessionConfig, log *logger.Logger) *Handler {
	return &Handler{store: store, val: val, log: log, session: session}
}

// RegisterPages mounts the server-rendered page and its form posts.
func (h *Handler) RegisterPages(rg *gin.RouterGroup, submitLimit gin.HandlerFunc) {
	rg.Use(h.Session())
	rg.GET("/", h.Page)
	rg.POST("/search/form", submitLimit, h.PostForm)
	rg.POST("/search/text", submitLimit, h.PostText)
}

// RegisterAPI mounts the JSON API.
func (h *Handler) RegisterAPI(rg *gin.RouterGroup, submitLimit gin.HandlerFunc) {
	rg.Use(h.Session())
	rg.GET("/state", h.State)
	rg.POST("/tab", h.SelectTab)
	rg.PATCH("/form/fields", h.SetField)
	rg.POST("/form", submitLimit, h.SubmitForm)
	rg.POST("/text", submitLimit, h.SubmitText)
}

// Session attaches the caller's live session, if any, and refreshes its
// cookie so the browser keeps it as long as the server does. Requests
// without one get a session only once they change state.
func (h *Handler) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookieID, _ := c.Cookie(h.session.GetSessionCookieName())
		if ctrl, ok := h.store.Get(cookieID); ok {
			h.attach(c, cookieID, ctrl)
		}
		c.Next()
	}
}

func (h *Handler) attach(c *gin.Context, id string, ctrl *controller.Controller) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.GetSessionCookieName(), id, int(h.session.GetSessionTTL().Seconds()), "/", "", h.session.GetSessionCookieSecure(), true)

	c.Set(contextSessionKey, ctrl)
	ctx := context.WithValue(c.Request.Context(), logger.SessionIDKey, id)
	c.Request = c.Request.WithContext(ctx)
}

// controllerFor returns the caller's controller. Without a live session it
// starts one when create is set, and otherwise returns an unstored empty
// controller for read-only rendering.
func (h *Handler) controllerFor(c *gin.Context, create bool) *controller.Controller {
	if v, ok := c.Get(contextSessionKey); ok {
		return v.(*controller.Controller)
	}
	if !create {
		return controller.New(nil)
	}
	id, ctrl := h.store.GetOrCreate("")
	h.attach(c, id, ctrl)
	return ctrl
}

// RedirectWhenLimited sends a rate-limited form post back to its tab, the
// same way a failed search is handled.
func RedirectWhenLimited(c *gin.Context) {
	tab := controller.TabForm
	if c.Request.URL.Path == "/search/text" {
		tab = controller.TabFreeText
	}
	c.Redirect(http.StatusSeeOther, "/?tab="+tab.String())
	c.Abort()
}

type pageData struct {
	ActiveTab string
	Form      transport.FormCriteria
	Query     string
	InFlight  bool
	Table     template.HTML
}

func (h *Handler) Page(c *gin.Context) {
	var ctrl *controller.Controller
	if tab, err := controller.ParseTab(c.Query("tab")); err == nil {
		ctrl = h.controllerFor(c, true)
		_ = ctrl.SelectTab(tab)
	} else {
		ctrl = h.controllerFor(c, false)
	}

	state := ctrl.Snapshot()
	view := state.FormTab
	if state.ActiveTab == controller.TabFreeText {
		view = state.TextTab
	}

	tbl, err := table.HTML(view.Results)
	if err != nil {
		h.log.WithContext(c.Request.Context()).Error("render results table", "error", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	c.Render(http.StatusOK, render.HTML{
		Template: pageTemplate,
		Name:     "page.html",
		Data: pageData{
			ActiveTab: state.ActiveTab.String(),
			Form:      state.Form,
			Query:     state.Query,
			InFlight:  view.Status == controller.InFlight,
			Table:     tbl,
		},
	})
}

// PostForm applies every posted criterion, then submits the form tab.
// Failures keep the previous results; the page does not report them.
func (h *Handler) PostForm(c *gin.Context) {
	ctrl := h.controllerFor(c, true)
	for _, name := range controller.FormFieldNames {
		if value, ok := c.GetPostForm(name); ok {
			_ = ctrl.SetField(name, value)
		}
	}
	_ = ctrl.SelectTab(controller.TabForm)
	h.submitAndRedirect(c, ctrl, controller.TabForm)
}

// PostText sets the query, then submits the free-text tab.
func (h *Handler) PostText(c *gin.Context) {
	ctrl := h.controllerFor(c, true)
	ctrl.SetQuery(c.PostForm("search"))
	_ = ctrl.SelectTab(controller.TabFreeText)
	h.submitAndRedirect(c, ctrl, controller.TabFreeText)
}

func (h *Handler) submitAndRedirect(c *gin.Context, ctrl *controller.Controller, tab controller.Tab) {
	if _, err := ctrl.Submit(c.Request.Context(), tab); err != nil {
		h.logSubmitError(c, tab, err)
	}
	c.Redirect(http.StatusSeeOther, "/?tab="+tab.String())
}

func (h *Handler) logSubmitError(c *gin.Context, tab controller.Tab, err error) {
	log := h.log.WithContext(c.Request.Context())
	switch {
	case errors.Is(err, controller.ErrSuperseded):
		log.Debug("search superseded", "tab", tab.String())
	case apperr.Is(err, apperr.KindValidation):
		log.Info("search rejected", "tab", tab.String(), "error", err)
	default:
		log.Warn("search failed", "tab", tab.String(), "error", err)
	}
}

func (h *Handler) State(c *gin.Context) {
	httpkit.OK(c, h.controllerFor(c, false).Snapshot())
}

type selectTabRequest struct {
	Tab string `json:"tab" validate:"required,oneof=form text"`
}

func (h *Handler) SelectTab(c *gin.Context) {
	var req selectTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest).WithDetails(err.Error()))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	ctrl := h.controllerFor(c, true)
	tab, err := controller.ParseTab(req.Tab)
	if httpkit.HandleError(c, err) {
		return
	}
	if httpkit.HandleError(c, ctrl.SelectTab(tab)) {
		return
	}
	httpkit.OK(c, ctrl.Snapshot())
}

type setFieldRequest struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

func (h *Handler) SetField(c *gin.Context) {
	var req setFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest).WithDetails(err.Error()))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	ctrl := h.controllerFor(c, true)
	if httpkit.HandleError(c, ctrl.SetField(req.Name, req.Value)) {
		return
	}
	httpkit.OK(c, ctrl.Snapshot().Form)
}

type searchResponse struct {
	Tab     controller.Tab      `json:"tab"`
	Count   int                 `json:"count"`
	Results []transport.Vehicle `json:"results"`
}

// SubmitForm optionally replaces all criteria with the JSON body, validates
// them and runs the form search.
func (h *Handler) SubmitForm(c *gin.Context) {
	ctrl := h.controllerFor(c, true)

	if c.Request.ContentLength != 0 {
		var criteria transport.FormCriteria
		if err := c.ShouldBindJSON(&criteria); err != nil {
			httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest).WithDetails(err.Error()))
			return
		}
		setAll(ctrl, criteria)
	}

	if err := h.val.Struct(ctrl.Snapshot().Form); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	h.submitJSON(c, ctrl, controller.TabForm)
}

func (h *Handler) SubmitText(c *gin.Context) {
	var req transport.FreeTextCriteria
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest).WithDetails(err.Error()))
		return
	}

	ctrl := h.controllerFor(c, true)
	ctrl.SetQuery(req.Search)
	h.submitJSON(c, ctrl, controller.TabFreeText)
}

func (h *Handler) submitJSON(c *gin.Context, ctrl *controller.Controller, tab controller.Tab) {
	rows, err := ctrl.Submit(c.Request.Context(), tab)
	if err != nil {
		h.logSubmitError(c, tab, err)
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, searchResponse{Tab: tab, Count: len(rows), Results: rows})
}

func setAll(ctrl *controller.Controller, f transport.FormCriteria) {
	values := map[string]string{
		"registrationNumber":   f.RegistrationNumber,
		"manufacturedTimeFrom": f.ManufacturedTimeFrom,
		"manufacturedTimeTo":   f.ManufacturedTimeTo,
		"priceFromIncluding":   f.PriceFromIncluding,
		"priceTo":              f.PriceTo,
		"numberOfKilometers":   f.NumberOfKilometers,
		"carTypeMake":          f.CarTypeMake,
		"carTypeModel":         f.CarTypeModel,
	}
	for _, name := range controller.FormFieldNames {
		_ = ctrl.SetField(name, values[name])
	}
}
