package controller

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/vaultpay/wallet-core/internal/logger"
	"github.com/vaultpay/wallet-core/internal/usecase/service_interfaces"
)

// maxWebhookBody bounds gateway webhook payloads.
const maxWebhookBody = 1 << 20

// signatureHeaders lists the header names gateways use for the HMAC digest,
// in lookup order.
var signatureHeaders = []string{
	"X-Webhook-Signature",
	"X-Signature",
	"X-Hub-Signature-256",
}

type WebhookController struct {
	service service_interfaces.PaymentService
}

func NewWebhookController(service service_interfaces.PaymentService) *WebhookController {
	return &WebhookController{service: service}
}

// RegisterRoutes mounts the webhook endpoint. The route stays outside
// channel auth: the gateway authenticates with its signature, not with
// channel credentials.
func (c *WebhookController) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/webhooks/payments", c.receive).Methods(http.MethodPost)
}

func (c *WebhookController) receive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "rejected"})
		return
	}

	logger.Info("payment webhook received", logger.Fields{
		"path":        r.URL.Path,
		"payloadSize": len(body),
	})

	ok := c.service.ProcessWebhook(r.Context(), body, webhookSignature(r))
	if !ok {
		response := map[string]string{"status": "rejected"}
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}

	response := map[string]string{"status": "ok"}
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func webhookSignature(r *http.Request) string {
	for _, header := range signatureHeaders {
		if value := r.Header.Get(header); value != "" {
			return value
		}
	}
	return ""
}
