package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/omarluq/transit-gate/internal/auth"
)

// Fixed demo values.
const (
	DepotID        = "depot-1"
	DispatchID     = "dispatch-1"
	ActiveVehicles = 112
)

// TrustReporter describes the trust backend for the health endpoint.
type TrustReporter interface {
	Kind() string
	State() string
}

// Handlers serves the City Transit Control endpoints. Every protected
// handler reads the caller from the Principal on the request context.
type Handlers struct {
	routes   RouteStore
	gates    *LiveGate
	trust    TrustReporter
	validate *validator.Validate
	now      func() time.Time
}

// NewHandlers creates the endpoint handlers.
func NewHandlers(routes RouteStore, gates *LiveGate, trust TrustReporter) *Handlers {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handlers{
		routes:   routes,
		gates:    gates,
		trust:    trust,
		validate: v,
		now:      time.Now,
	}
}

// HealthResponse is the public health document.
type HealthResponse struct {
	Time         time.Time `json:"time"`
	Status       string    `json:"status"`
	TrustBackend string    `json:"trust_backend"`
}

// Health reports liveness and the trust backend state.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	state := "unknown"
	if h.trust != nil {
		state = h.trust.State()
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:       "ok",
		Time:         h.now().UTC(),
		TrustBackend: state,
	})
}

// RouteSearchResponse is a page of routes.
type RouteSearchResponse struct {
	Items []Route `json:"items"`
	Total int     `json:"total"`
}

// ListRoutes searches routes by city and transport type.
func (h *Handlers) ListRoutes(w http.ResponseWriter, r *http.Request) {
	q, err := parseRouteQuery(r)
	if err == nil {
		err = h.validate.Struct(q)
	}
	if err != nil {
		h.writeInvalid(w, r, err)
		return
	}

	total, items := h.routes.Search(q)
	writeJSON(w, http.StatusOK, RouteSearchResponse{Total: total, Items: items})
}

func parseRouteQuery(r *http.Request) (RouteQuery, error) {
	values := r.URL.Query()
	q := RouteQuery{
		City:          values.Get("city"),
		TransportType: values.Get("transport_type"),
		Limit:         DefaultRouteLimit,
	}
	for name, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("%s: must be an integer", name)
		}
		*dst = n
	}
	return q, nil
}

// GetRoute returns one route by id.
func (h *Handlers) GetRoute(w http.ResponseWriter, r *http.Request) {
	route, ok := h.routes.Get(r.PathValue("route_id"))
	if !ok {
		WriteError(w, http.StatusNotFound, ErrTypeNotFound, "Route not found.")
		return
	}
	writeJSON(w, http.StatusOK, route)
}

// CreateDepotRequest is the depot creation payload.
type CreateDepotRequest struct {
	Name        string `json:"name" validate:"min=2,max=120"`
	City        string `json:"city" validate:"min=2,max=120"`
	MaxVehicles int    `json:"max_vehicles" validate:"gte=1,lte=500"`
}

// DepotResponse is a created depot.
type DepotResponse struct {
	DepotID     string `json:"depot_id"`
	Name        string `json:"name"`
	City        string `json:"city"`
	MaxVehicles int    `json:"max_vehicles"`
}

// CreateDepot creates a depot. Requires basic auth.
func (h *Handlers) CreateDepot(w http.ResponseWriter, r *http.Request) {
	var req CreateDepotRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusCreated, DepotResponse{
		DepotID:     DepotID,
		Name:        req.Name,
		City:        req.City,
		MaxVehicles: req.MaxVehicles,
	})
}

// ProfileResponse identifies the caller.
type ProfileResponse struct {
	Subject    string `json:"subject"`
	AuthMethod string `json:"auth_method"`
}

// Profile returns the authenticated subject and method.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{
		Subject:    p.Subject(),
		AuthMethod: p.AuthMethod().String(),
	})
}

// SystemMetrics reports fleet counters. Requires the header API key.
func (h *Handlers) SystemMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"active_routes":   h.routes.Len(),
		"active_vehicles": ActiveVehicles,
	})
}

// Incident is a reported disruption.
type Incident struct {
	ReportedAt time.Time `json:"reported_at"`
	IncidentID string    `json:"incident_id"`
	RouteID    string    `json:"route_id"`
	Severity   string    `json:"severity"`
	Status     string    `json:"status"`
}

// Incidents lists open incidents. Requires the session cookie.
func (h *Handlers) Incidents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []Incident{{
		IncidentID: "inc-1",
		RouteID:    "route-1",
		Severity:   "medium",
		ReportedAt: time.Date(2026, time.March, 1, 7, 30, 0, 0, time.UTC),
		Status:     "open",
	}})
}

// DispatchRequest schedules a vehicle on a route.
type DispatchRequest struct {
	DepartsAt   *time.Time `json:"departs_at" validate:"required"`
	DriverNotes *string    `json:"driver_notes,omitempty"`
	VehicleID   string     `json:"vehicle_id" validate:"required"`
	RouteID     string     `json:"route_id" validate:"required"`
}

// DispatchResponse is a scheduled dispatch.
type DispatchResponse struct {
	DepartsAt  time.Time `json:"departs_at"`
	DispatchID string    `json:"dispatch_id"`
	VehicleID  string    `json:"vehicle_id"`
	RouteID    string    `json:"route_id"`
	Status     string    `json:"status"`
}

// CreateDispatch schedules a dispatch. Requires an OAuth2 access token.
func (h *Handlers) CreateDispatch(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusCreated, DispatchResponse{
		DispatchID: DispatchID,
		VehicleID:  req.VehicleID,
		RouteID:    req.RouteID,
		DepartsAt:  *req.DepartsAt,
		Status:     "scheduled",
	})
}

// Alert is a hybrid-protected notice.
type Alert struct {
	ID      string `json:"id"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// HybridAlert reports which scheme let the caller in.
func (h *Handlers) HybridAlert(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Alert{
		ID:      "alert-1",
		Level:   "low",
		Message: fmt.Sprintf("Hybrid-authenticated via %s.", p.AuthMethod()),
	})
}

// LoginRequest is the session login payload. Both fields must be present;
// empty values are checked like any other and fail with 401.
type LoginRequest struct {
	Username *string `json:"username" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

// LoginResponse confirms a session.
type LoginResponse struct {
	Message string `json:"message"`
}

// SessionLogin checks the basic credentials and sets the session cookie.
func (h *Handlers) SessionLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	cookie, err := h.gates.Load().Sessions().Issue(r.Context(), *req.Username, *req.Password).Get()
	if err != nil {
		h.writeIssueFailure(w, r, err)
		return
	}

	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, LoginResponse{Message: "Session cookie issued."})
}

// TokenForm is the OAuth2 password-grant form.
type TokenForm struct {
	GrantType string `json:"grant_type" validate:"omitempty,eq=password"`
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Scope     string `json:"scope"`
}

// Token exchanges a username and password for an access token.
func (h *Handlers) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		if IsBodyTooLargeError(err) {
			WriteError(w, http.StatusRequestEntityTooLarge, ErrTypeTooLarge, "Request body too large.")
			return
		}
		h.writeInvalid(w, r, err)
		return
	}
	form := TokenForm{
		GrantType: r.PostForm.Get("grant_type"),
		Username:  r.PostForm.Get("username"),
		Password:  r.PostForm.Get("password"),
		Scope:     r.PostForm.Get("scope"),
	}
	if err := h.validate.Struct(form); err != nil {
		h.writeInvalid(w, r, err)
		return
	}

	token, err := h.gates.Load().Tokens().Issue(r.Context(), form.Username, form.Password).Get()
	if err != nil {
		h.writeIssueFailure(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, token)
}

func (h *Handlers) principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		zerolog.Ctx(r.Context()).Error().Str("path", r.URL.Path).Msg("handler reached without a principal")
		WriteError(w, http.StatusUnauthorized, ErrTypeAuthentication, "Not authenticated.")
	}
	return p, ok
}

// decode reads a JSON body into dst and validates it. It writes the error
// response and returns false on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if IsBodyTooLargeError(err) {
			WriteError(w, http.StatusRequestEntityTooLarge, ErrTypeTooLarge, "Request body too large.")
			return false
		}
		h.writeInvalid(w, r, fmt.Errorf("body: %w", err))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeInvalid(w, r, err)
		return false
	}
	return true
}

func (h *Handlers) writeInvalid(w http.ResponseWriter, r *http.Request, err error) {
	message := err.Error()
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		message = strings.Join(lo.Map(verrs, func(fe validator.FieldError, _ int) string {
			return describeField(fe)
		}), "; ")
	}
	zerolog.Ctx(r.Context()).Debug().Str("path", r.URL.Path).Str("validation", message).Msg("rejected request")
	WriteError(w, http.StatusUnprocessableEntity, ErrTypeInvalidRequest, message)
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + ": field required"
	case "min":
		return fmt.Sprintf("%s: at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s: at most %s characters", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s: must be >= %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s: must be <= %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: must be one of %s", fe.Field(), fe.Param())
	case "eq":
		return fmt.Sprintf("%s: must be %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag())
	}
}

func (h *Handlers) writeIssueFailure(w http.ResponseWriter, r *http.Request, err error) {
	f, ok := auth.AsFailure(err)
	if !ok {
		WriteError(w, http.StatusServiceUnavailable, ErrTypeUnavailable, auth.MessageUnavailable)
		return
	}
	zerolog.Ctx(r.Context()).Warn().
		Str("scheme", string(f.Scheme)).
		Str("reason", f.Reason.String()).
		Int("status", f.Status).
		Str("path", r.URL.Path).
		Msg("credential exchange failed")
	WriteFailure(w, f)
}
