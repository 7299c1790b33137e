package utils

import (
	"context"

	"github.com/restodata/resto_backend/appctx"
)

var (
	ContextKeyRequestUser   = appctx.ContextKeyRequestUser
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

func GetRequestUserFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRequestUser)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetRequestUserInContext(ctx context.Context, user string) context.Context {
	return appctx.Set(ctx, ContextKeyRequestUser, user)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}
