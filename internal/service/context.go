package service

import "context"

type contextKey string

const (
	operatorKey contextKey = "operator"
	traceKey    contextKey = "trace_id"
)

// OperatorInfo identifies who issued an API call.
type OperatorInfo struct {
	UserID string
	Name   string
	Role   string
}

func WithOperator(ctx context.Context, op *OperatorInfo) context.Context {
	return context.WithValue(ctx, operatorKey, op)
}

func GetOperatorInfo(ctx context.Context) *OperatorInfo {
	val, ok := ctx.Value(operatorKey).(*OperatorInfo)
	if !ok {
		return nil
	}
	return val
}

// GetOperator returns the operator name, or "system" for calls made by the
// scheduler or with auth disabled.
func GetOperator(ctx context.Context) string {
	op := GetOperatorInfo(ctx)
	if op == nil {
		return "system"
	}
	return op.Name
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey, traceID)
}

func GetTraceID(ctx context.Context) string {
	val, _ := ctx.Value(traceKey).(string)
	return val
}
