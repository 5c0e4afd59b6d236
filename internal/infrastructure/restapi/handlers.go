package restapi

import (
	"errors"
	"net/http"
	"strings"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope every /api/v1 endpoint answers with.
type APIResponse struct {
	Data          any    `json:"data,omitempty"`
	Error         string `json:"error,omitempty"`
	StatusMessage string `json:"status_message"`
}

// SetRequest is the body of POST /api/v1/set. Value stays a string so the service sees exactly what the user typed.
type SetRequest struct {
	Value string `json:"value"`
}

// ValueResponse carries the stored value as a decimal string.
type ValueResponse struct {
	Value string `json:"value"`
}

// DappHandler serves the view and the connect, set and get actions over HTTP.
type DappHandler struct {
	connection port.ConnectionService
	actions    port.ActionService
	view       port.View
	networks   port.NetworkDefinitionProvider
}

// NewDappHandler creates a new instance of DappHandler.
func NewDappHandler(cs port.ConnectionService, as port.ActionService, view port.View, np port.NetworkDefinitionProvider) *DappHandler {
	return &DappHandler{
		connection: cs,
		actions:    as,
		view:       view,
		networks:   np,
	}
}

// GetStateHandler returns the current view snapshot.
func (h *DappHandler) GetStateHandler(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Data: h.view.Snapshot(), StatusMessage: "ok"})
}

// ConnectHandler drops the current session and connects again.
func (h *DappHandler) ConnectHandler(c *gin.Context) {
	if err := h.connection.Reconnect(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Data: h.view.Snapshot(), StatusMessage: "Connected."})
}

// SetValueHandler submits set(value) and answers once the transaction is mined.
func (h *DappHandler) SetValueHandler(c *gin.Context) {
	var req SetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Error: err.Error(), StatusMessage: "Request body must be {\"value\": \"<number>\"}."})
		return
	}

	record, err := h.actions.Set(c.Request.Context(), req.Value)
	if err != nil {
		if record != nil && record.Hash != "" {
			c.JSON(statusFor(err), APIResponse{Data: record, Error: err.Error(), StatusMessage: "Set failed. Check logs for details."})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Data: record, StatusMessage: "Transaction confirmed."})
}

// GetValueHandler reads the stored value from the contract.
func (h *DappHandler) GetValueHandler(c *gin.Context) {
	value, err := h.actions.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Data: ValueResponse{Value: value.String()}, StatusMessage: "ok"})
}

// GetTxHandler looks up a transaction submitted by this process.
func (h *DappHandler) GetTxHandler(c *gin.Context) {
	hash := strings.TrimSpace(c.Param("hash"))
	record, ok := h.actions.Tx(hash)
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Error: "unknown transaction", StatusMessage: "Transaction not found or expired."})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Data: record, StatusMessage: "ok"})
}

// GetNoticesHandler returns the most recent notices, oldest first.
func (h *DappHandler) GetNoticesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Data: h.view.Notices(), StatusMessage: "ok"})
}

// GetNetworksHandler lists the known networks and the target.
func (h *DappHandler) GetNetworksHandler(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{
		Data: gin.H{
			"target":   h.networks.Target(),
			"networks": h.networks.GetAllNetworkDefinitions(),
		},
		StatusMessage: "ok",
	})
}

// GetNetworkHandler returns one network by identifier or name.
func (h *DappHandler) GetNetworkHandler(c *gin.Context) {
	def, ok := h.networks.GetNetworkDefinitionByName(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Error: "unknown network", StatusMessage: "Network not found."})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Data: def, StatusMessage: "ok"})
}

// HealthHandler reports liveness together with the connection state.
func (h *DappHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": h.view.Snapshot().State})
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), APIResponse{Error: err.Error(), StatusMessage: messageFor(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidValue):
		return http.StatusBadRequest
	case entity.IsUserRejected(err):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNetworkSwitch):
		return http.StatusPreconditionFailed
	case errors.Is(err, entity.ErrNotConnected), errors.Is(err, entity.ErrWalletUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, entity.ErrContractCall):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, entity.ErrInvalidValue):
		return "Enter a number"
	case entity.IsUserRejected(err):
		return "Request was rejected in the wallet."
	case errors.Is(err, entity.ErrBusy):
		return "A transaction is already in flight."
	case errors.Is(err, entity.ErrNetworkSwitch):
		return "Please switch your wallet network manually."
	case errors.Is(err, entity.ErrNotConnected):
		return "Not connected yet."
	default:
		return "Request failed. Check logs for details."
	}
}
