/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// go-aadmac API
//
// # RESTful APIs to interact with go-aadmac server
//
// Schemes: http
// Host: localhost:8010
// Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package control

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"jinr.ru/greenlab/go-aadmac/pkg/aadmac"
	"jinr.ru/greenlab/go-aadmac/pkg/config"
	"jinr.ru/greenlab/go-aadmac/pkg/log"
	"jinr.ru/greenlab/go-aadmac/pkg/srv"
	"jinr.ru/greenlab/go-aadmac/pkg/srv/control/ifc"
)

//go:embed swagger.json
var swaggerJSON []byte

// ChannelHex is a channel mask as hex string
type ChannelHex struct {
	Channel string `json:"channel"`
}

type Channels struct {
	Allocated string   `json:"allocated"`
	Free      string   `json:"free"`
	Channels  []string `json:"channels"`
}

// ChannelSetup ...
type ChannelSetup struct {
	Direction    string `json:"direction"`
	Fifo         string `json:"fifo"`
	TransferSize uint8  `json:"transferSize"`
	Address      string `json:"address"`
	Size         string `json:"size"`
	Enable       bool   `json:"enable"`
}

type DDRStatusSetup struct {
	Status string `json:"status"`
	// Clear acknowledges hardware ready flags instead of setting software ones
	Clear bool `json:"clear"`
}

type ChannelStatus struct {
	Channel        string `json:"channel"`
	Enabled        bool   `json:"enabled"`
	Direction      string `json:"direction"`
	Fifo           string `json:"fifo"`
	TransferSize   uint32 `json:"transferSize"`
	Address        string `json:"address"`
	WrapSize       string `json:"wrapSize"`
	SWReady        string `json:"swReady"`
	HWReady        string `json:"hwReady"`
	RequestCount   uint8  `json:"requestCount"`
	CurrentPointer string `json:"currentPointer"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// RegHex ...
type RegHex struct {
	Addr  string `json:"addr"`  // hexadecimal
	Value string `json:"value"` // hexadecimal
	Name  string `json:"name,omitempty"`
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08x", v)
}

func parseUint32(field, s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, srv.ErrBadValue{Field: field, Value: s}
	}
	return uint32(v), nil
}

func newChannelStatus(st aadmac.ChannelStatus) *ChannelStatus {
	resp := &ChannelStatus{
		Channel:        st.Channel.Hex(),
		Enabled:        st.Enabled,
		Direction:      st.Direction.String(),
		Fifo:           fmt.Sprintf("0x%04x", uint32(st.Fifo)),
		TransferSize:   st.TransferSize,
		Address:        hex32(st.Address),
		WrapSize:       fmt.Sprintf("0x%x", st.WrapSize),
		SWReady:        st.SWReady.String(),
		HWReady:        st.HWReady.String(),
		RequestCount:   st.RequestCount,
		CurrentPointer: fmt.Sprintf("0x%04x", st.CurrentPointer),
	}
	if st.HasTimestamp {
		resp.Timestamp = hex32(st.Timestamp)
	}
	return resp
}

// ChannelConfig converts the setup to block terms
func (c *ChannelSetup) ChannelConfig() (aadmac.ChannelConfig, error) {
	cfg := aadmac.ChannelConfig{
		TransferSize: c.TransferSize,
		Enable:       c.Enable,
	}
	dir, err := aadmac.ParseDirection(c.Direction)
	if err != nil {
		return cfg, srv.ErrBadValue{Field: "direction", Value: c.Direction}
	}
	cfg.Direction = dir
	fifo, err := parseUint32("fifo", c.Fifo)
	if err != nil {
		return cfg, err
	}
	cfg.Fifo = aadmac.Fifo(fifo)
	if cfg.Address, err = parseUint32("address", c.Address); err != nil {
		return cfg, err
	}
	if cfg.Size, err = parseUint32("size", c.Size); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// httpStatus maps block errors to response codes. Anything unknown came from the register port.
func httpStatus(err error) int {
	var badValue srv.ErrBadValue
	var unknownOp srv.ErrUnknownOperation
	switch {
	case errors.Is(err, aadmac.ErrNoFreeChannel), errors.Is(err, aadmac.ErrChannelBusy):
		return http.StatusConflict
	case errors.Is(err, aadmac.ErrInvalidChannel), errors.Is(err, aadmac.ErrInvalidFifo),
		errors.Is(err, aadmac.ErrOutOfWindow), errors.As(err, &badValue), errors.As(err, &unknownOp):
		return http.StatusBadRequest
	case errors.Is(err, aadmac.ErrNotInitialized):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, err error) {
	code := httpStatus(err)
	if code == http.StatusBadGateway {
		log.Error("Register access failed: %s", err)
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while encoding response: %s", err)
	}
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	ctrl ifc.ControlServer
	doc  *loads.Document
}

var _ ifc.ApiServer = &ApiServer{}

func NewApiServer(ctx context.Context, cfg *config.Config, ctrl ifc.ControlServer) (ifc.ApiServer, error) {
	log.Info("Initializing API server with address: %s", cfg.ControlAddr())

	doc, err := loads.Analyzed(swaggerJSON, "")
	if err != nil {
		return nil, fmt.Errorf("invalid swagger document: %w", err)
	}

	s := &ApiServer{
		Context: ctx,
		Config:  cfg,
		ctrl:    ctrl,
		doc:     doc,
	}
	s.configureRouter()
	return s, nil
}

// Handler returns the router wrapped with docs, access log and panic recovery
func (s *ApiServer) Handler() http.Handler {
	var h http.Handler = s.Router
	h = middleware.Redoc(middleware.RedocOpts{
		Path:    "docs",
		SpecURL: "/swagger.json",
		Title:   s.doc.Spec().Info.Title,
	}, h)
	h = middleware.Spec("/", s.doc.Raw(), h)
	h = handlers.LoggingHandler(log.Writer(), h)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
}

// Run serves the API until the context is done
func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s", s.Config.ControlAddr())
	httpServer := &http.Server{
		Handler:           s.Handler(),
		Addr:              s.Config.ControlAddr(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-s.Context.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Error while shutting down API server: %s", err)
		}
	}()
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	subRouter.HandleFunc("/channels", s.handleChannels()).Methods("GET")
	subRouter.HandleFunc("/channels/alloc", s.handleAlloc()).Methods("POST")
	subRouter.HandleFunc("/channels/{channel}/free", s.handleFree()).Methods("POST")
	subRouter.HandleFunc("/channels/{channel}/{action:enable|disable|clear_fifo}", s.handleChannelAction()).Methods("POST")
	subRouter.HandleFunc("/channels/{channel}/config", s.handleConfig()).Methods("POST")
	subRouter.HandleFunc("/channels/{channel}/ddr_status", s.handleDDRStatus()).Methods("POST")
	subRouter.HandleFunc("/channels/{channel}/status", s.handleStatus()).Methods("GET")
	subRouter.HandleFunc("/reg/r", s.handleRegReadAll()).Methods("GET")
	subRouter.HandleFunc("/reg/r/{addr:0x[0-9a-fA-F]+}", s.handleRegRead()).Methods("GET")
	subRouter.HandleFunc("/reg/w", s.handleRegWrite()).Methods("POST")
}

func channelVar(r *http.Request) (aadmac.Channel, error) {
	return aadmac.ParseChannel(mux.Vars(r)["channel"])
}

func (s *ApiServer) handleChannels() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allocated, err := s.ctrl.Block().Allocated()
		if err != nil {
			writeError(w, err)
			return
		}
		resp := &Channels{
			Allocated: allocated.Hex(),
			Free:      (aadmac.ChAll &^ allocated).Hex(),
			Channels:  []string{},
		}
		for _, idx := range allocated.Indexes() {
			resp.Channels = append(resp.Channels, idx.String())
		}
		writeJSON(w, resp)
	}
}

func (s *ApiServer) handleAlloc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &ChannelHex{}
		// empty body means any channel
		if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		requested := aadmac.ChVoid
		if req.Channel != "" {
			ch, err := aadmac.ParseChannel(req.Channel)
			if err != nil {
				writeError(w, err)
				return
			}
			requested = ch
		}
		log.Debug("Handling alloc request: channel: %s", requested)

		ch, err := s.ctrl.Block().AllocGiven(requested)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, &ChannelHex{Channel: ch.Hex()})
	}
}

func (s *ApiServer) handleFree() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channelVar(r)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Debug("Handling free request: channel: %s", ch)
		if err = s.ctrl.Block().Free(ch); err != nil {
			writeError(w, err)
		}
	}
}

func (s *ApiServer) handleChannelAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		ch, err := channelVar(r)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Debug("Handling channel action request: channel: %s action: %s", ch, vars["action"])
		block := s.ctrl.Block()
		switch vars["action"] {
		case "enable":
			err = block.Enable(ch)
		case "disable":
			err = block.Disable(ch)
		case "clear_fifo":
			err = block.ClearChannelFifo(ch)
		default:
			err = srv.ErrUnknownOperation{What: "Wrong channel action. Must be one of enable/disable/clear_fifo"}
		}
		if err != nil {
			writeError(w, err)
		}
	}
}

func (s *ApiServer) handleConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channelVar(r)
		if err != nil {
			writeError(w, err)
			return
		}
		setup := &ChannelSetup{}
		if err = json.NewDecoder(r.Body).Decode(setup); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cfg, err := setup.ChannelConfig()
		if err != nil {
			writeError(w, err)
			return
		}
		log.Debug("Handling config request: channel: %s setup: %+v", ch, *setup)
		if err = s.ctrl.Block().Configure(ch, cfg); err != nil {
			writeError(w, err)
		}
	}
}

func (s *ApiServer) handleDDRStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channelVar(r)
		if err != nil {
			writeError(w, err)
			return
		}
		setup := &DDRStatusSetup{}
		if err = json.NewDecoder(r.Body).Decode(setup); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		status, err := aadmac.ParseFifoStatus(setup.Status)
		if err != nil {
			writeError(w, srv.ErrBadValue{Field: "status", Value: setup.Status})
			return
		}
		log.Debug("Handling ddr status request: channel: %s status: %s clear: %t", ch, status, setup.Clear)
		if setup.Clear {
			err = s.ctrl.Block().ClearDDRFifoStatus(ch, status)
		} else {
			err = s.ctrl.Block().SetDDRFifoStatus(ch, status)
		}
		if err != nil {
			writeError(w, err)
		}
	}
}

func (s *ApiServer) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channelVar(r)
		if err != nil {
			writeError(w, err)
			return
		}
		status, err := s.ctrl.Block().Status(ch)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, newChannelStatus(status))
	}
}

func (s *ApiServer) handleRegRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling reg read request: addr: %s", vars["addr"])

		addr, err := parseUint32("addr", vars["addr"])
		if err != nil {
			writeError(w, err)
			return
		}
		value, err := s.ctrl.Block().ReadRegister(addr)
		if err != nil {
			writeError(w, err)
			return
		}
		name, _ := aadmac.RegisterName(addr)
		writeJSON(w, &RegHex{Addr: fmt.Sprintf("0x%03x", addr), Value: hex32(value), Name: name})
	}
}

func (s *ApiServer) handleRegReadAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling reg read all request")
		regs, err := s.ctrl.Block().Registers()
		if err != nil {
			writeError(w, err)
			return
		}
		regsHex := []*RegHex{}
		for _, reg := range regs {
			regsHex = append(regsHex, &RegHex{
				Addr:  fmt.Sprintf("0x%03x", reg.Offset),
				Value: hex32(reg.Value),
				Name:  reg.Name,
			})
		}
		writeJSON(w, regsHex)
	}
}

func (s *ApiServer) handleRegWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regHex := &RegHex{}
		if err := json.NewDecoder(r.Body).Decode(regHex); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug("Handling reg write request: addr: %s value: %s", regHex.Addr, regHex.Value)

		addr, err := parseUint32("addr", regHex.Addr)
		if err != nil {
			writeError(w, err)
			return
		}
		value, err := parseUint32("value", regHex.Value)
		if err != nil {
			writeError(w, err)
			return
		}
		if err = s.ctrl.Block().WriteRegister(addr, value); err != nil {
			writeError(w, err)
		}
	}
}
