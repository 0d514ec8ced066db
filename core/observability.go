package core

import (
	"context"
	"sort"
	"strconv"
	"strings"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
	statusQueued  = "queued"
)

func (l *WebhookListener) observeDelivery(ctx context.Context, result DeliveryResult, err error) {
	if l == nil {
		return
	}
	status := statusSuccess
	switch {
	case err != nil:
		status = statusFailure
	case result.Queued:
		status = statusQueued
	}

	fields := map[string]any{
		"delivery_id": result.DeliveryID,
		"category":    result.Category.String(),
		"method":      result.Method,
		"url":         result.URL,
		"status":      status,
		"duration_ms": result.Duration.Milliseconds(),
	}
	if result.StatusCode > 0 {
		fields["status_code"] = result.StatusCode
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	tags := map[string]string{
		"category": result.Category.String(),
		"method":   result.Method,
		"status":   status,
	}
	if result.StatusCode > 0 {
		tags["status_code"] = strconv.Itoa(result.StatusCode)
	}

	l.recordCounter(ctx, metricNotifyTotal, 1, tags)
	l.recordHistogram(ctx, metricNotifyDurationMS, float64(result.Duration.Milliseconds()), tags)

	switch status {
	case statusFailure:
		l.logError(ctx, "flag notification failed", fields)
	case statusQueued:
		l.logInfo(ctx, "flag notification queued", fields)
	default:
		l.logInfo(ctx, "flag notification delivered", fields)
	}
}

func (l *WebhookListener) logDebug(ctx context.Context, message string, fields map[string]any) {
	l.logWithLevel(ctx, "debug", message, fields)
}

func (l *WebhookListener) logInfo(ctx context.Context, message string, fields map[string]any) {
	l.logWithLevel(ctx, "info", message, fields)
}

func (l *WebhookListener) logError(ctx context.Context, message string, fields map[string]any) {
	l.logWithLevel(ctx, "error", message, fields)
}

func (l *WebhookListener) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if l == nil || l.logger == nil {
		return
	}
	logger := l.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	case "debug":
		logger.Debug(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (l *WebhookListener) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if l == nil || l.metrics == nil {
		return
	}
	l.metrics.IncCounter(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func (l *WebhookListener) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if l == nil || l.metrics == nil {
		return
	}
	l.metrics.ObserveHistogram(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}
