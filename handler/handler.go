// Package handler adapts the webhook to AWS Lambda behind API Gateway.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"voice-lead-agent/internal/logging"
	"voice-lead-agent/internal/webhook"
)

const correlationHeader = "X-Correlation-Id"

// Processor is satisfied by *webhook.Processor.
type Processor interface {
	Process(ctx context.Context, body []byte) webhook.Response
}

// Handler serves the webhook as an API Gateway proxy integration.
type Handler struct {
	processor Processor
	logger    *slog.Logger
}

// NewHandler validates p. A nil logger falls back to slog.Default.
func NewHandler(p Processor, logger *slog.Logger) (*Handler, error) {
	if p == nil {
		return nil, errors.New("handler: processor must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{processor: p, logger: logger}, nil
}

// Handle mirrors POST /webhook: the status is always 200 and the outcome is
// carried in the JSON body.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := h.logger.With("correlation_id", correlationID, "path", event.Path)
	ctx = logging.WithContext(ctx, logger)

	var resp webhook.Response
	body, err := eventBody(event)
	if err != nil {
		logger.Error("decode lambda body", "err", err)
		resp = webhook.Apology()
	} else {
		resp = h.processor.Process(ctx, body)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		logger.Error("encode reply", "err", err)
		raw, _ = json.Marshal(webhook.Apology())
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(raw),
	}, nil
}

func eventBody(event events.APIGatewayProxyRequest) ([]byte, error) {
	if !event.IsBase64Encoded {
		return []byte(event.Body), nil
	}
	return base64.StdEncoding.DecodeString(event.Body)
}

// headerValue looks up a header case-insensitively; API Gateway forwards
// headers exactly as the client sent them.
func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
