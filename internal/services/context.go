package services

import "context"

type contextKey int

const (
	videoIDKey contextKey = iota
	taskTypeKey
	itemIDKey
	requestIDKey
)

// WithVideoID stores the video identifier on the context.
func WithVideoID(ctx context.Context, videoID string) context.Context {
	return context.WithValue(ctx, videoIDKey, videoID)
}

// VideoIDFromContext extracts the video identifier from the context.
func VideoIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(videoIDKey).(string)
	return value, ok && value != ""
}

// WithTaskType stores the task type on the context.
func WithTaskType(ctx context.Context, taskType string) context.Context {
	return context.WithValue(ctx, taskTypeKey, taskType)
}

// TaskTypeFromContext extracts the task type from the context.
func TaskTypeFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(taskTypeKey).(string)
	return value, ok && value != ""
}

// WithItemID stores the queue item identifier on the context.
func WithItemID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, itemIDKey, id)
}

// ItemIDFromContext extracts the queue item identifier from the context.
func ItemIDFromContext(ctx context.Context) (int64, bool) {
	value, ok := ctx.Value(itemIDKey).(int64)
	return value, ok && value != 0
}

// WithRequestID stores the request correlation identifier on the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request correlation identifier from the context.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(requestIDKey).(string)
	return value, ok && value != ""
}
