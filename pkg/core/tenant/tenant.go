package tenant

import "context"

// contextKey context键类型（内部使用，避免与其他包冲突）
type contextKey string

const tenantIDKey contextKey = "tms.tenant_id"

// WithTenant 将租户ID写入context（对外导出）
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// FromContext 从context读取租户ID（对外导出）
// 缺失时返回空串，由调用方决定是否拒绝
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tenantIDKey).(string); ok {
		return v
	}
	return ""
}
