package helpers

import "context"

type clientIPKey struct{}

// WithClientIP stores the caller's address on the request context
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the address stored by WithClientIP, or nil
func ClientIP(ctx context.Context) *string {
	ip, ok := ctx.Value(clientIPKey{}).(string)
	if !ok || ip == "" {
		return nil
	}
	return &ip
}
