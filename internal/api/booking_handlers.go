package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	apperrors "nextstop/internal/errors"
	"nextstop/internal/service"
	"nextstop/internal/session"
	"nextstop/internal/workflow"
)

type BookingHandler struct {
	Service *service.BookingService
	Cookies FlowCookies
	responder
}

func NewBookingHandler(svc *service.BookingService, cookies FlowCookies, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Cookies: cookies, responder: responder{logger: logger}}
}

// respond writes the step view. When an operation failed but the flow was
// still saved, the error response comes first and the cookie is kept.
func (h *BookingHandler) respond(w http.ResponseWriter, r *http.Request, f *workflow.Flow, err error) {
	if f != nil {
		h.Cookies.Write(w, f.ID)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Render(f))
}

func (h *BookingHandler) Current(w http.ResponseWriter, r *http.Request) {
	f, err := h.Service.Flow(r.Context(), h.Cookies.Read(r))
	h.respond(w, r, f, err)
}

func (h *BookingHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	f, err := h.Service.Search(r.Context(), h.Cookies.Read(r), req)
	h.respond(w, r, f, err)
}

func (h *BookingHandler) SelectSchedule(w http.ResponseWriter, r *http.Request) {
	var req SelectScheduleRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ScheduleID <= 0 {
		h.fail(w, r, service.ValidationError{Field: "scheduleId", Msg: "is required"})
		return
	}
	f, err := h.Service.SelectSchedule(r.Context(), h.Cookies.Read(r), req.ScheduleID)
	h.respond(w, r, f, err)
}

func (h *BookingHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req ReserveRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sess := session.FromContext(r.Context())
	f, err := h.Service.Reserve(r.Context(), h.Cookies.Read(r), sess, req.SeatNumbers, req.Passenger)
	h.respond(w, r, f, err)
}

func (h *BookingHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req PayRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sess := session.FromContext(r.Context())
	f, err := h.Service.Pay(r.Context(), h.Cookies.Read(r), sess, req.PaymentMethodID)
	h.respond(w, r, f, err)
}

// ConfirmPayment is called by the browser once the customer finished the
// processor's own step, such as a card challenge.
func (h *BookingHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	f, err := h.Service.ConfirmPayment(r.Context(), h.Cookies.Read(r), sess)
	h.respond(w, r, f, err)
}

func (h *BookingHandler) Back(w http.ResponseWriter, r *http.Request) {
	f, err := h.Service.Back(r.Context(), h.Cookies.Read(r))
	h.respond(w, r, f, err)
}

func (h *BookingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	f, err := h.Service.Reset(r.Context(), h.Cookies.Read(r))
	h.respond(w, r, f, err)
}

func (h *BookingHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.Service.Receipts(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (h *BookingHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["bookingId"], 10, 64)
	if err != nil {
		h.fail(w, r, apperrors.ErrBadRequest("bookingId must be a number"))
		return
	}
	receipt, err := h.Service.Receipt(r.Context(), session.FromContext(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
