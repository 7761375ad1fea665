package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/polizadesk/ticketboard/internal/adapters/primary/http/middleware"
	"github.com/polizadesk/ticketboard/internal/adapters/primary/validation"
	"github.com/polizadesk/ticketboard/internal/auth"
	"github.com/polizadesk/ticketboard/internal/core/domain"
	"github.com/polizadesk/ticketboard/internal/core/ports"
)

const (
	MaxTitleLength        = 500
	MaxDescriptionLength  = 5000
	MaxPolicyNumberLength = 100
)

var statusValues = []string{
	string(domain.StatusAssigned),
	string(domain.StatusInProgress),
	string(domain.StatusTransferred),
	string(domain.StatusSolved),
}

var dateFilterValues = []string{
	string(ports.DateFilterAll),
	string(ports.DateFilterToday),
	string(ports.DateFilterWeek),
	string(ports.DateFilterMonth),
	string(ports.DateFilterCustom),
}

// TicketHandler handles HTTP requests for tickets
type TicketHandler struct {
	ticketService ports.TicketService
	errorHandler  *ErrorHandler
	location      *time.Location
	logger        *slog.Logger
}

// NewTicketHandler creates a new ticket handler. The location is the one the
// query engine groups and filters in; date query parameters are parsed there
// so "today" and a custom start date mean the same calendar day everywhere.
func NewTicketHandler(
	ticketService ports.TicketService,
	errorHandler *ErrorHandler,
	location *time.Location,
	logger *slog.Logger,
) *TicketHandler {
	if location == nil {
		location = time.Local
	}
	return &TicketHandler{
		ticketService: ticketService,
		errorHandler:  errorHandler,
		location:      location,
		logger:        logger.With("handler", "ticket"),
	}
}

// Router sets up a new chi Router for all ticket-related routes.
func (h *TicketHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all ticket endpoints.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTickets)
	r.Post("/", h.HandleCreateTicket)
	r.Get("/board", h.HandleBoard)
	r.Get("/solved", h.HandleSolvedView)
	r.Get("/stats", h.HandleStats)

	// Routes for a specific ticket
	r.Route("/{ticketID}", func(r chi.Router) {
		r.Get("/", h.HandleGetTicket)
		r.Put("/", h.HandleUpdateTicket)
		r.Patch("/status", h.HandleUpdateTicketStatus)
	})
}

// --- Request/Response DTOs ---

// TicketRequest defines the expected JSON body for creating or fully editing
// a ticket. Creation and edit accept the same fields.
type TicketRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	AssignedUserID *string `json:"assignedUserId"`
	PolicyNumber   string  `json:"policyNumber"`
	CreatedAt      *string `json:"createdAt"`
}

// Validate validates the ticket request
func (r *TicketRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("title", r.Title).
		MaxLength("title", r.Title, MaxTitleLength)

	v.Required("description", r.Description).
		MaxLength("description", r.Description, MaxDescriptionLength)

	v.Required("policyNumber", r.PolicyNumber).
		MaxLength("policyNumber", r.PolicyNumber, MaxPolicyNumberLength)

	v.Required("status", r.Status).
		OneOf("status", r.Status, statusValues)

	if r.AssignedUserID != nil {
		v.UUID("assignedUserId", *r.AssignedUserID)
	}

	if r.CreatedAt != nil {
		_, err := time.Parse(time.RFC3339, *r.CreatedAt)
		v.Custom("createdAt", err == nil, "Must be an RFC 3339 timestamp")
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// assignedUserID returns the parsed assignee, or nil for unassigned.
func (r *TicketRequest) assignedUserID() *uuid.UUID {
	if r.AssignedUserID == nil || *r.AssignedUserID == "" {
		return nil
	}
	id, err := uuid.Parse(*r.AssignedUserID)
	if err != nil {
		return nil
	}
	return &id
}

// createdAt returns the parsed timestamp, or the zero time when absent.
func (r *TicketRequest) createdAt() time.Time {
	if r.CreatedAt == nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, *r.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// UpdateStatusRequest defines the expected JSON body for status updates
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Validate validates the update status request
func (r *UpdateStatusRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("status", r.Status).
		OneOf("status", r.Status, statusValues)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// TicketDTO defines the JSON response for tickets.
type TicketDTO struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	AssignedUserID *string `json:"assignedUserId"`
	CreatedByID    string  `json:"createdById"`
	PolicyNumber   string  `json:"policyNumber"`
	CreatedAt      string  `json:"createdAt"`
}

func toTicketDTO(ticket *domain.Ticket) TicketDTO {
	var assignedUserID *string
	if ticket.AssignedUserID != nil {
		value := ticket.AssignedUserID.String()
		assignedUserID = &value
	}

	return TicketDTO{
		ID:             ticket.ID.String(),
		Title:          ticket.Title,
		Description:    ticket.Description,
		Status:         string(ticket.Status),
		AssignedUserID: assignedUserID,
		CreatedByID:    ticket.CreatedByID.String(),
		PolicyNumber:   ticket.PolicyNumber,
		CreatedAt:      ticket.CreatedAt.Format(time.RFC3339),
	}
}

func toTicketDTOs(tickets []*domain.Ticket) []TicketDTO {
	response := make([]TicketDTO, 0, len(tickets))
	for _, ticket := range tickets {
		response = append(response, toTicketDTO(ticket))
	}
	return response
}

// BoardDTO defines the JSON response for the status board. Every bucket is
// present even when empty.
type BoardDTO map[string][]TicketDTO

func toBoardDTO(buckets map[domain.TicketStatus][]*domain.Ticket) BoardDTO {
	board := make(BoardDTO, len(buckets))
	for status, tickets := range buckets {
		board[string(status)] = toTicketDTOs(tickets)
	}
	return board
}

// DayGroupDTO is one calendar day of solved tickets.
type DayGroupDTO struct {
	Day     string      `json:"day"`
	Tickets []TicketDTO `json:"tickets"`
}

func toDayGroupDTOs(groups []ports.DayGroup) []DayGroupDTO {
	response := make([]DayGroupDTO, 0, len(groups))
	for _, group := range groups {
		response = append(response, DayGroupDTO{
			Day:     group.Day,
			Tickets: toTicketDTOs(group.Tickets),
		})
	}
	return response
}

// --- Handlers ---

// HandleListTickets handles GET /tickets
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	tickets, err := h.ticketService.List(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toTicketDTOs(tickets))
}

// HandleCreateTicket handles POST /tickets
func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[TicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.CreateTicketParams{
		Title:          req.Title,
		Description:    req.Description,
		Status:         domain.TicketStatus(req.Status),
		AssignedUserID: req.assignedUserID(),
		PolicyNumber:   req.PolicyNumber,
		CreatedAt:      req.createdAt(),
		ActorID:        claims.UserID,
	}

	ticket, err := h.ticketService.Create(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket created",
		"ticket_id", ticket.ID,
		"user_id", claims.UserID,
	)

	WriteCreated(w, toTicketDTO(ticket))
}

// HandleGetTicket handles GET /tickets/{ticketID}
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.Get(r.Context(), claims.UserID, ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleUpdateTicket handles PUT /tickets/{ticketID}
func (h *TicketHandler) HandleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[TicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateTicketParams{
		TicketID:       ticketID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         domain.TicketStatus(req.Status),
		AssignedUserID: req.assignedUserID(),
		PolicyNumber:   req.PolicyNumber,
		CreatedAt:      req.createdAt(),
		ActorID:        claims.UserID,
	}

	ticket, err := h.ticketService.Update(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket updated",
		"ticket_id", ticketID,
		"user_id", claims.UserID,
	)

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleUpdateTicketStatus handles PATCH /tickets/{ticketID}/status
func (h *TicketHandler) HandleUpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateStatusRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateStatusParams{
		TicketID: ticketID,
		Status:   domain.TicketStatus(req.Status),
		ActorID:  claims.UserID,
	}

	ticket, err := h.ticketService.UpdateStatus(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket status updated",
		"ticket_id", ticketID,
		"new_status", req.Status,
		"user_id", claims.UserID,
	)

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleBoard handles GET /tickets/board
func (h *TicketHandler) HandleBoard(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	buckets, err := h.ticketService.Board(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toBoardDTO(buckets))
}

// HandleSolvedView handles GET /tickets/solved
func (h *TicketHandler) HandleSolvedView(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	filter, err := h.parseSolvedFilter(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	groups, err := h.ticketService.SolvedView(r.Context(), ports.SolvedViewParams{
		ViewerID: claims.UserID,
		Filter:   filter,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toDayGroupDTOs(groups))
}

// HandleStats handles GET /tickets/stats
func (h *TicketHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	counts, err := h.ticketService.Stats(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make(map[string]int, len(counts))
	for status, count := range counts {
		response[string(status)] = count
	}

	WriteJSON(w, http.StatusOK, response)
}

// --- Helper methods ---

// getClaims extracts and validates user claims from the request context
func (h *TicketHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return nil, false
	}
	return claims, true
}

// parseTicketID extracts and validates the ticket ID from the URL
func (h *TicketHandler) parseTicketID(r *http.Request) (uuid.UUID, error) {
	ticketIDStr := chi.URLParam(r, "ticketID")
	ticketID, err := uuid.Parse(ticketIDStr)
	if err != nil {
		v := validation.NewValidator()
		v.Custom("ticketID", false, "Invalid ticket ID")
		return uuid.Nil, v.Errors()
	}
	return ticketID, nil
}

// parseSolvedFilter reads the solved-view query parameters. Missing range
// defaults to "all"; start/end are calendar dates in the engine's location.
func (h *TicketHandler) parseSolvedFilter(r *http.Request) (ports.SolvedFilter, error) {
	v := validation.NewValidator()

	dateFilter := ports.DateFilterAll
	if rangeStr := validation.ParseStringQueryParam(r, "range"); rangeStr != "" {
		v.OneOf("range", rangeStr, dateFilterValues)
		dateFilter = ports.DateFilter(rangeStr)
	}

	start, err := validation.ParseDateQueryParam(r, "start", h.location)
	if err != nil {
		v.Custom("start", false, "Must be a date in YYYY-MM-DD format")
	}

	end, err := validation.ParseDateQueryParam(r, "end", h.location)
	if err != nil {
		v.Custom("end", false, "Must be a date in YYYY-MM-DD format")
	}

	if start != nil && end != nil && start.After(*end) {
		v.Custom("start", false, "Must be before end")
	}

	if v.HasErrors() {
		return ports.SolvedFilter{}, v.Errors()
	}

	return ports.SolvedFilter{
		PolicySearch: validation.ParseStringQueryParam(r, "policy"),
		DateFilter:   dateFilter,
		CustomRange:  ports.DateRange{Start: start, End: end},
	}, nil
}
