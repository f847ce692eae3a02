package order

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/colibriadf/colibri/pkg"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger    apt.Logger
	config    *apt.Config
	tlm       *telemetry.HTTP
	store     OrderStore
	channels  ChannelStore
	carriers  CarrierStore
	view      *LiveView
	importer  *Importer
	publisher events.Publisher
}

type HandlerDeps struct {
	Store     OrderStore
	Channels  ChannelStore
	Carriers  CarrierStore
	View      *LiveView
	Importer  *Importer
	Publisher events.Publisher
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:    logger,
		config:    config,
		tlm:       telemetry.NewHTTP(),
		store:     hd.Store,
		channels:  hd.Channels,
		carriers:  hd.Carriers,
		view:      hd.View,
		importer:  hd.Importer,
		publisher: hd.Publisher,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ordenes", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.Get("/estados", h.StateCounts)
		r.Get("/exportar", h.ExportOrders)
		r.Post("/importar", h.ImportOrders)
		r.Post("/refrescar", h.RefreshOrders)
		r.Put("/{id}", h.UpdateOrder)
		r.Delete("/{id}", h.DeleteOrder)
		r.Post("/{id}/restaurar", h.RestoreOrder)
		r.Delete("/{id}/definitiva", h.HardDeleteOrder)
	})

	r.Route("/items", func(r chi.Router) {
		r.Delete("/{id}", h.DeleteItem)
	})

	r.Get("/canales", h.ListChannels)

	r.Route("/transportadoras", func(r chi.Router) {
		r.Get("/", h.ListCarriers)
		r.Post("/", h.CreateCarrier)
	})
}

// Order handlers

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	if h.view.Status() == ViewIdle {
		if err := h.view.Refresh(ctx); err != nil {
			log.Error("initial orders fetch failed", "error", err)
		}
	}

	if h.view.Status() == ViewFailed {
		apt.RespondError(w, http.StatusServiceUnavailable, h.view.Err())
		return
	}

	params, ok := h.parseViewParams(w, r, log)
	if !ok {
		return
	}

	apt.RespondCollection(w, h.view.Project(params), "orden")
}

func (h *Handler) StateCounts(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.StateCounts")
	defer finish()

	includeDeleted := boolParam(r, "incluir_eliminadas")
	apt.RespondSuccess(w, h.view.Counts(includeDeleted))
}

func (h *Handler) RefreshOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RefreshOrders")
	defer finish()

	log := h.log(r)
	if err := h.view.Refresh(r.Context()); err != nil {
		log.Error("manual refresh failed", "error", err)
		apt.RespondError(w, http.StatusServiceUnavailable, h.view.Err())
		return
	}
	apt.RespondSuccess(w, map[string]int{"ordenes": len(h.view.Aggregates())})
}

type OrderItemPayload struct {
	ID       uuid.UUID `json:"id,omitempty"`
	SKU      string    `json:"sku"`
	Product  string    `json:"producto"`
	Quantity int       `json:"cantidad"`
	Price    float64   `json:"precio"`
	Freight  float64   `json:"flete"`
}

type OrderCreateRequest struct {
	ChannelID   uuid.UUID          `json:"canal_id"`
	Code        string             `json:"codigo_orden"`
	Client      ClientInfo         `json:"cliente"`
	Items       []OrderItemPayload `json:"items"`
	GuideNumber string             `json:"guia_numero,omitempty"`
	CarrierID   uuid.UUID          `json:"transportadora_id,omitempty"`
	User        string             `json:"usuario,omitempty"`
}

type OrderUpdateRequest struct {
	ChannelID   uuid.UUID          `json:"canal_id"`
	Code        string             `json:"codigo_orden"`
	State       string             `json:"estado"`
	Client      ClientInfo         `json:"cliente"`
	Items       []OrderItemPayload `json:"items"`
	GuideNumber string             `json:"guia_numero,omitempty"`
	CarrierID   uuid.UUID          `json:"transportadora_id,omitempty"`
	User        string             `json:"usuario,omitempty"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req OrderCreateRequest
	if !h.decodeJSON(w, r, &req, log) {
		return
	}

	if req.ChannelID == uuid.Nil {
		log.Debug("missing canal_id in create order request")
		apt.RespondError(w, http.StatusBadRequest, "canal_id is required")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		apt.RespondError(w, http.StatusBadRequest, "codigo_orden is required")
		return
	}
	if len(req.Items) == 0 {
		apt.RespondError(w, http.StatusBadRequest, "at least one item is required")
		return
	}

	result, err := h.store.Create(ctx, CreateParams{
		ChannelID:   req.ChannelID,
		Code:        req.Code,
		Client:      req.Client,
		Items:       payloadItems(req.Items),
		GuideNumber: req.GuideNumber,
		CarrierID:   req.CarrierID,
		User:        req.User,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			log.Debug("duplicate order code", "codigo_orden", req.Code)
			apt.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		log.Error("cannot create order", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create order")
		return
	}

	h.publishChange(r, pkg.OrdersChangesTopic, pkg.ChangeInsert)
	h.publishChange(r, pkg.OrderItemsChangesTopic, pkg.ChangeInsert)
	if req.Client.Name != "" {
		h.publishChange(r, pkg.OrderClientsChangesTopic, pkg.ChangeInsert)
	}
	h.refreshView(r)

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, result)
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req OrderUpdateRequest
	if !h.decodeJSON(w, r, &req, log) {
		return
	}

	if !IsSelectableState(req.State) {
		log.Debug("invalid estado", "estado", req.State)
		apt.RespondError(w, http.StatusBadRequest, "Invalid estado")
		return
	}

	err := h.store.Update(ctx, UpdateParams{
		OrderID:     id,
		ChannelID:   req.ChannelID,
		Code:        req.Code,
		State:       req.State,
		Client:      req.Client,
		Items:       payloadItems(req.Items),
		GuideNumber: req.GuideNumber,
		CarrierID:   req.CarrierID,
		User:        req.User,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			apt.RespondError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, ErrDuplicateCode):
			apt.RespondError(w, http.StatusConflict, err.Error())
		default:
			log.Error("cannot update order", "error", err, "id", id.String())
			apt.RespondError(w, http.StatusInternalServerError, "Could not update order")
		}
		return
	}

	h.publishChange(r, pkg.OrdersChangesTopic, pkg.ChangeUpdate)
	h.publishChange(r, pkg.OrderItemsChangesTopic, pkg.ChangeUpdate)
	h.publishChange(r, pkg.OrderClientsChangesTopic, pkg.ChangeUpdate)
	h.refreshView(r)

	apt.RespondSuccess(w, map[string]string{"orden_id": id.String()})
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if err := h.store.SoftDelete(ctx, id, r.URL.Query().Get("usuario")); err != nil {
		if errors.Is(err, ErrNotFound) {
			apt.RespondError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Error("cannot delete order", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete order")
		return
	}

	h.publishChange(r, pkg.OrdersChangesTopic, pkg.ChangeUpdate)
	h.refreshView(r)

	apt.RespondSuccess(w, map[string]string{"orden_id": id.String(), "estado": StateDeleted})
}

func (h *Handler) RestoreOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RestoreOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if err := h.store.Restore(ctx, id, r.URL.Query().Get("usuario")); err != nil {
		if errors.Is(err, ErrNotFound) {
			apt.RespondError(w, http.StatusNotFound, "Order not found or not deleted")
			return
		}
		log.Error("cannot restore order", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not restore order")
		return
	}

	h.publishChange(r, pkg.OrdersChangesTopic, pkg.ChangeUpdate)
	h.refreshView(r)

	apt.RespondSuccess(w, map[string]string{"orden_id": id.String(), "estado": StateRestored})
}

func (h *Handler) HardDeleteOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.HardDeleteOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if err := h.store.HardDelete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			apt.RespondError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Error("cannot hard-delete order", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete order")
		return
	}

	h.publishChange(r, pkg.OrdersChangesTopic, pkg.ChangeDelete)
	h.publishChange(r, pkg.OrderItemsChangesTopic, pkg.ChangeDelete)
	h.publishChange(r, pkg.OrderClientsChangesTopic, pkg.ChangeDelete)
	h.refreshView(r)

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	orderID, err := h.store.DeleteItem(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			apt.RespondError(w, http.StatusNotFound, "Item not found")
			return
		}
		log.Error("cannot delete item", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete item")
		return
	}

	h.publishChange(r, pkg.OrderItemsChangesTopic, pkg.ChangeDelete)
	h.refreshView(r)

	apt.RespondSuccess(w, map[string]string{"orden_id": orderID.String()})
}

// Import / export

type ImportRequest struct {
	ChannelID uuid.UUID   `json:"canal_id"`
	User      string      `json:"usuario,omitempty"`
	Rows      []ImportRow `json:"filas"`
}

func (h *Handler) ImportOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ImportOrders")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req ImportRequest
	if !h.decodeJSON(w, r, &req, log) {
		return
	}
	if len(req.Rows) == 0 {
		apt.RespondError(w, http.StatusBadRequest, "no rows to import")
		return
	}

	summary, err := h.importer.Run(ctx, req.ChannelID, req.Rows, req.User)
	if err != nil {
		log.Error("bulk import failed", "error", err)
		apt.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if summary.Created > 0 {
		h.publishChange(r, pkg.OrdersChangesTopic, pkg.ChangeInsert)
		h.publishChange(r, pkg.OrderItemsChangesTopic, pkg.ChangeInsert)
		h.refreshView(r)
	}

	apt.RespondSuccess(w, summary)
}

func (h *Handler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ExportOrders")
	defer finish()

	log := h.log(r)

	if h.view.Status() == ViewIdle {
		if err := h.view.Refresh(r.Context()); err != nil {
			log.Error("fetch before export failed", "error", err)
		}
	}
	if h.view.Status() == ViewFailed {
		apt.RespondError(w, http.StatusServiceUnavailable, h.view.Err())
		return
	}

	params, ok := h.parseViewParams(w, r, log)
	if !ok {
		return
	}

	apt.RespondCollection(w, ExportRows(h.view.Project(params)), "fila")
}

// Channel and carrier handlers

func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListChannels")
	defer finish()

	log := h.log(r)

	channels, err := h.channels.List(r.Context())
	if err != nil {
		log.Error("error retrieving channels", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve channels")
		return
	}
	apt.RespondCollection(w, channels, "canal")
}

func (h *Handler) ListCarriers(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListCarriers")
	defer finish()

	log := h.log(r)

	var carriers []Carrier
	var err error
	if boolParam(r, "todas") {
		carriers, err = h.carriers.List(r.Context())
	} else {
		carriers, err = h.carriers.ListActive(r.Context())
	}
	if err != nil {
		log.Error("error retrieving carriers", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve carriers")
		return
	}
	apt.RespondCollection(w, carriers, "transportadora")
}

type CarrierCreateRequest struct {
	Name string `json:"nombre"`
}

func (h *Handler) CreateCarrier(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateCarrier")
	defer finish()

	log := h.log(r)

	var req CarrierCreateRequest
	if !h.decodeJSON(w, r, &req, log) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		apt.RespondError(w, http.StatusBadRequest, "nombre is required")
		return
	}

	carrier, err := h.carriers.Create(r.Context(), req.Name)
	if err != nil {
		log.Error("cannot create carrier", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create carrier")
		return
	}

	links := apt.RESTfulLinksFor(&carrier)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, carrier, links...)
}

// Helpers

func (h *Handler) parseViewParams(w http.ResponseWriter, r *http.Request, log apt.Logger) (ViewParams, bool) {
	q := r.URL.Query()

	params := ViewParams{
		IncludeDeleted: boolParam(r, "incluir_eliminadas"),
		Search:         q.Get("q"),
		State:          q.Get("estado"),
		StartClock:     q.Get("hora_inicio"),
		EndClock:       q.Get("hora_fin"),
		Direction:      SortAsc,
	}
	if q.Get("orden") == string(SortDesc) {
		params.Direction = SortDesc
	}

	for name, dst := range map[string]**time.Time{"desde": &params.From, "hasta": &params.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			log.Debug("invalid date parameter", "param", name, "value", raw)
			apt.RespondError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
			return ViewParams{}, false
		}
		*dst = &t
	}

	return params, true
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, log apt.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}

	return true
}

func (h *Handler) publishChange(r *http.Request, topic, kind string) {
	if h.publisher == nil {
		return
	}
	evt := pkg.ChangeEvent{
		EventType:  kind,
		Table:      pkg.TableForTopic(topic),
		OccurredAt: time.Now().UTC(),
	}
	msg, _ := json.Marshal(evt)
	if err := h.publisher.Publish(r.Context(), topic, msg); err != nil {
		h.log(r).Error("failed to publish change event", "topic", topic, "error", err)
	}
}

func (h *Handler) refreshView(r *http.Request) {
	if h.view == nil {
		return
	}
	if err := h.view.Refresh(r.Context()); err != nil {
		h.log(r).Error("view refresh after write failed", "error", err)
	}
}

func payloadItems(items []OrderItemPayload) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, LineItem{
			ID:       it.ID,
			SKU:      it.SKU,
			Product:  it.Product,
			Quantity: it.Quantity,
			Price:    it.Price,
			Freight:  it.Freight,
		})
	}
	return out
}

func boolParam(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	return v == "true" || v == "1"
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
