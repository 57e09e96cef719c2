package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/vaultpay/wallet-core/internal/adapter/http/models"
	"github.com/vaultpay/wallet-core/internal/commons"
	"github.com/vaultpay/wallet-core/internal/domain"
	"github.com/vaultpay/wallet-core/internal/logger"
	"github.com/vaultpay/wallet-core/internal/usecase/service_interfaces"
)

type TransactionController struct {
	service service_interfaces.TransferService
}

func NewTransactionController(service service_interfaces.TransferService) *TransactionController {
	return &TransactionController{service: service}
}

func (c *TransactionController) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/transfers", c.createTransfer).Methods(http.MethodPost)
	router.HandleFunc("/payroll-credits", c.createPayrollCredit).Methods(http.MethodPost)
	router.HandleFunc("/transactions/review-queue", c.listReviewQueue).Methods(http.MethodGet)
	router.HandleFunc("/transactions/{id}", c.getTransaction).Methods(http.MethodGet)
	router.HandleFunc("/transactions/{id}/retry", c.retryTransaction).Methods(http.MethodPost)
	router.HandleFunc("/transactions/{id}/review", c.reviewTransaction).Methods(http.MethodPost)
	router.HandleFunc("/accounts/{accountId}/transactions", c.listTransactions).Methods(http.MethodGet)
}

func (c *TransactionController) createTransfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.TransactionResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	req.RequestingUserID = requestingUserID(r)
	req.DeviceID = r.Header.Get("X-Device-Id")
	req.IPAddress = clientIP(r)
	req.UserAgent = r.UserAgent()
	logRequest(r, req)

	response, err := c.service.CreateTransfer(r.Context(), req)
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := transferErrorStatus(response.Message)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	status := http.StatusCreated
	if response.Data != nil && response.Data.Status == string(domain.TransactionStatusPending) {
		status = http.StatusAccepted
	}
	writeJSON(w, status, response)
	logResponse(r, status, response, start)
}

func (c *TransactionController) createPayrollCredit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.PayrollCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.TransactionResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.CreatePayrollCredit(r.Context(), req)
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := transferErrorStatus(response.Message)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *TransactionController) getTransaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.GetTransaction(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := transferErrorStatus(response.Message)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) listTransactions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	response, err := c.service.ListTransactions(r.Context(), mux.Vars(r)["accountId"], limit)
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := transferErrorStatus(response.Message)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) retryTransaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.RetryTransaction(r.Context(), mux.Vars(r)["id"], requestingUserID(r))
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := transferErrorStatus(response.Message)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) listReviewQueue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	response, err := c.service.ListReviewQueue(r.Context(), limit)
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		writeJSON(w, http.StatusInternalServerError, response)
		logResponse(r, http.StatusInternalServerError, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) reviewTransaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.ReviewTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.TransactionResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	req.ReviewerID = requestingUserID(r)
	logRequest(r, req)

	response, err := c.service.ReviewTransaction(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := transferErrorStatus(response.Message)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func transferErrorStatus(message string) int {
	switch message {
	case "validation failed", "invalid request body":
		return http.StatusBadRequest
	case "Source account not found", "Destination account not found", "Transaction not found":
		return http.StatusNotFound
	case "Insufficient balance", "transfer failed":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
