package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	JobIDDeliver        = "flaghooks.webhook.deliver"
	JobScriptPathPrefix = "flaghooks/webhooks/"
	JobDedupPolicy      = "drop"
)

const (
	jobParamDeliveryID = "delivery_id"
	jobParamCategory   = "category"
	jobParamMethod     = "method"
	jobParamURL        = "url"
	jobParamHeaders    = "headers"
	jobParamBody       = "body"
)

func (l *WebhookListener) enqueue(ctx context.Context, deliveryID string, category Category, req TransportRequest) error {
	msg := newDeliveryJobMessage(deliveryID, category, req)
	if err := l.enqueuer.Enqueue(ctx, msg); err != nil {
		return internalError(err, "core: enqueue webhook delivery")
	}
	return nil
}

func newDeliveryJobMessage(deliveryID string, category Category, req TransportRequest) *JobExecutionMessage {
	headers := make(map[string]any, len(req.Headers))
	for key, value := range req.Headers {
		headers[key] = value
	}
	return &JobExecutionMessage{
		JobID:      JobIDDeliver,
		ScriptPath: JobScriptPathPrefix + category.String(),
		Parameters: map[string]any{
			jobParamDeliveryID: deliveryID,
			jobParamCategory:   category.String(),
			jobParamMethod:     req.Method,
			jobParamURL:        req.URL,
			jobParamHeaders:    headers,
			jobParamBody:       string(req.Body),
		},
		IdempotencyKey: deliveryID,
		DedupPolicy:    JobDedupPolicy,
	}
}

type deliveryJob struct {
	deliveryID string
	category   Category
	request    TransportRequest
}

func decodeDeliveryJob(msg *JobExecutionMessage) (deliveryJob, error) {
	if msg == nil {
		return deliveryJob{}, badInputError("core: delivery job message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDDeliver {
		return deliveryJob{}, badInputError(fmt.Sprintf("core: unexpected job id %q", msg.JobID))
	}
	params := msg.Parameters
	category, err := ParseCategory(stringParam(params, jobParamCategory))
	if err != nil {
		return deliveryJob{}, err
	}
	if category == CategoryBase {
		return deliveryJob{}, badInputError("core: delivery job requires a notification category")
	}
	method := stringParam(params, jobParamMethod)
	if method == "" {
		method = category.Method()
	}

	job := deliveryJob{
		deliveryID: stringParam(params, jobParamDeliveryID),
		category:   category,
		request: TransportRequest{
			Method:  method,
			URL:     stringParam(params, jobParamURL),
			Headers: headersParam(params[jobParamHeaders]),
			Metadata: map[string]any{
				"category": category.String(),
				"queued":   true,
			},
		},
	}
	if job.deliveryID == "" {
		job.deliveryID = strings.TrimSpace(msg.IdempotencyKey)
	}
	if body := stringParam(params, jobParamBody); body != "" {
		job.request.Body = []byte(body)
	}
	return job, nil
}

func stringParam(params map[string]any, key string) string {
	value, ok := params[key]
	if !ok || value == nil {
		return ""
	}
	if typed, ok := value.(string); ok {
		return strings.TrimSpace(typed)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// headersParam accepts both the enqueued map[string]string shape and the
// map[string]any shape produced by queue backends that round-trip JSON.
func headersParam(value any) map[string]string {
	switch typed := value.(type) {
	case map[string]string:
		return copyHeaders(typed)
	case map[string]any:
		out := make(map[string]string, len(typed))
		for key, raw := range typed {
			if raw == nil {
				continue
			}
			out[key] = fmt.Sprint(raw)
		}
		return out
	default:
		return map[string]string{}
	}
}

// DeliveryWorker performs queued webhook deliveries. Each delivery is tried
// once and acknowledged whatever the outcome.
type DeliveryWorker struct {
	listener *WebhookListener
}

func NewDeliveryWorker(listener *WebhookListener) (*DeliveryWorker, error) {
	if listener == nil {
		return nil, badInputError("core: delivery worker requires a webhook listener")
	}
	return &DeliveryWorker{listener: listener}, nil
}

// RunOnce takes one delivery from dequeuer and processes it.
func (w *DeliveryWorker) RunOnce(ctx context.Context, dequeuer JobDequeuer) error {
	if dequeuer == nil {
		return badInputError("core: delivery worker requires a dequeuer")
	}
	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	return w.Process(ctx, delivery)
}

func (w *DeliveryWorker) Process(ctx context.Context, delivery JobDelivery) error {
	if w == nil || w.listener == nil {
		return internalError(nil, "core: delivery worker is not configured")
	}
	if delivery == nil {
		return badInputError("core: delivery is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	job, err := decodeDeliveryJob(delivery.Message())
	if err != nil {
		return errors.Join(err, delivery.Ack(ctx))
	}

	listener := w.listener
	result := DeliveryResult{
		DeliveryID: job.deliveryID,
		Category:   job.category,
		Method:     job.request.Method,
		URL:        job.request.URL,
	}
	startedAt := listener.now()
	result.StatusCode, err = listener.send(ctx, job.category, job.request)
	result.Duration = listener.now().Sub(startedAt)
	listener.observeDelivery(ctx, result, err)

	if ackErr := delivery.Ack(ctx); ackErr != nil {
		return errors.Join(err, ackErr)
	}
	return err
}
