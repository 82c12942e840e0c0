package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"

	"payfast/config"
	"payfast/services"

	"github.com/julienschmidt/httprouter"
)

const (
	payOrder      = "/checkout/pay/:order_id"
	paymentResult = "/Plugins/PaymentPayFast/PaymentResult"
	paymentInfo   = "/Plugins/PaymentPayFast/PaymentInfo"

	maxNotificationBody = 64 << 10
)

type Server struct {
	conf           *config.Config
	httpServer     *http.Server
	payments       services.Payments
	plugin         services.Plugin
	logger         services.LogHandler
	trustedProxies []netip.Prefix
	proxiesErr     error
}

func NewServer(conf *config.Config) *Server {

	server := Server{
		conf: conf,
	}
	if conf != nil {
		server.trustedProxies, server.proxiesErr = conf.TrustedProxyPrefixes()
	}

	// register itself as a router for httpServer handler
	router := httprouter.New()
	server.Register(router)
	server.httpServer = &http.Server{
		Handler: router,
	}

	return &server
}

func (s *Server) Register(router *httprouter.Router) {
	router.GET(payOrder, s.payOrder)
	router.POST(paymentResult, s.paymentResult)
	router.GET(paymentInfo, s.paymentInfo)
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) SetPaymentsService(payments services.Payments) {
	s.payments = payments
}

func (s *Server) SetPlugin(plugin services.Plugin) {
	s.plugin = plugin
}

func (s *Server) SetLogger(logger services.LogHandler) {
	s.logger = logger
}

func (s *Server) Start() error {
	if s.conf == nil {
		return fmt.Errorf("configuration not loaded")
	}
	if s.proxiesErr != nil {
		return s.proxiesErr
	}

	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIP, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	if s.conf.Listen.TLS {
		s.logger.Info(fmt.Sprintf("starting https TLS on %s", serverAddress))
		err = s.httpServer.ServeTLS(listener, s.conf.Listen.CertFile, s.conf.Listen.KeyFile)
	} else {
		s.logger.Info(fmt.Sprintf("starting http on %s", serverAddress))
		err = s.httpServer.Serve(listener)
	}

	return err
}

func (s *Server) payOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	orderId := ps.ByName("order_id")
	id, err := strconv.Atoi(orderId)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] invalid order id: %s; %v", reqID, orderId, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	form, err := s.payments.PostProcessPayment(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			s.logger.Warn(fmt.Sprintf("[%s] pay order %d: %v", reqID, id, err))
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, ErrOrderNotPending):
			s.logger.Warn(fmt.Sprintf("[%s] pay order %d: %v", reqID, id, err))
			w.WriteHeader(http.StatusConflict)
		default:
			s.logger.Error(fmt.Sprintf("[%s] pay order %d", reqID, id), err)
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err = RenderRedirectForm(w, form); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] render redirect form", reqID), err)
	}
}

// paymentResult always answers 200 with an empty body: the gateway only
// resends notifications that were not acknowledged.
func (s *Server) paymentResult(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxNotificationBody)
	if err := r.ParseForm(); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] payment result: parse form", reqID), err)
		w.WriteHeader(http.StatusOK)
		return
	}

	remoteAddr := ClientIP(r, s.conf.Listen.TrustForwarded, s.trustedProxies)
	s.logger.Debug(fmt.Sprintf("[%s] payment result from %s: %s", reqID, remoteAddr, r.PostForm.Encode()))

	if err := s.payments.Notify(ctx, r.PostForm, remoteAddr); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] payment result rejected", reqID))
	}
	w.WriteHeader(http.StatusOK)
}

type paymentInfoResponse struct {
	Description   string  `json:"description"`
	AdditionalFee float64 `json:"additional_fee"`
}

func (s *Server) paymentInfo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	var subtotal float64
	if value := r.URL.Query().Get("subtotal"); value != "" {
		var err error
		subtotal, err = strconv.ParseFloat(value, 64)
		if err != nil {
			s.logger.Warn(fmt.Sprintf("[%s] payment info: invalid subtotal: %s", reqID, value))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	}

	fee, err := s.payments.AdditionalHandlingFee(ctx, subtotal)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] payment info: additional fee", reqID), err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	response := paymentInfoResponse{AdditionalFee: fee}
	if s.plugin != nil {
		response.Description, err = s.plugin.PaymentMethodDescription(ctx)
		if err != nil {
			s.logger.Warn(fmt.Sprintf("[%s] payment info: %v", reqID, err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] payment info: encode response", reqID), err)
	}
}

// ClientIP returns the address of the caller. With trustForwarded the
// X-Forwarded-For chain is read right to left: proxies append the address
// they received from, so the first hop that is not a trusted proxy is the
// caller and anything left of it may be forged. With trusted proxies set,
// the header is honored only when the connection comes from one of them.
func ClientIP(r *http.Request, trustForwarded bool, trustedProxies []netip.Prefix) string {
	peer := remoteHost(r.RemoteAddr)
	if !trustForwarded {
		return peer
	}
	if len(trustedProxies) > 0 && !isTrustedProxy(peer, trustedProxies) {
		return peer
	}

	var hops []string
	for _, value := range r.Header.Values("X-Forwarded-For") {
		for _, hop := range strings.Split(value, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	if len(hops) == 0 {
		return peer
	}
	for i := len(hops) - 1; i > 0; i-- {
		if !isTrustedProxy(hops[i], trustedProxies) {
			return hops[i]
		}
	}
	return hops[0]
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func isTrustedProxy(host string, trustedProxies []netip.Prefix) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
