package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/vaultpay/wallet-core/internal/adapter/http/models"
	"github.com/vaultpay/wallet-core/internal/commons"
	"github.com/vaultpay/wallet-core/internal/logger"
	"github.com/vaultpay/wallet-core/internal/usecase/service_interfaces"
)

type PaymentController struct {
	service service_interfaces.PaymentService
}

func NewPaymentController(service service_interfaces.PaymentService) *PaymentController {
	return &PaymentController{service: service}
}

func (c *PaymentController) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/payments/topup", c.initiateTopUp).Methods(http.MethodPost)
	router.HandleFunc("/payments/{id}", c.getPayment).Methods(http.MethodGet)
	router.HandleFunc("/payments/{id}/cancel", c.cancelPayment).Methods(http.MethodPost)
	router.HandleFunc("/payments/{id}/verify", c.verifyPayment).Methods(http.MethodPost)
}

func (c *PaymentController) initiateTopUp(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.InitiateTopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.PaymentResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	req.RequestingUserID = requestingUserID(r)
	logRequest(r, req)

	response, err := c.service.InitiateTopUp(r.Context(), req)
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := paymentErrorStatus(response.Message)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *PaymentController) getPayment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.GetPayment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := paymentErrorStatus(response.Message)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *PaymentController) cancelPayment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.CancelPayment(r.Context(), mux.Vars(r)["id"], requestingUserID(r))
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := paymentErrorStatus(response.Message)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *PaymentController) verifyPayment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.VerifyPayment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := paymentErrorStatus(response.Message)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func paymentErrorStatus(message string) int {
	switch message {
	case "validation failed", "invalid request body":
		return http.StatusBadRequest
	case "Payment not found", "Account not found":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
