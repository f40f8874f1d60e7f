package server

import "context"

type Company struct {
	ID   string
	Name string
}

type companyCtxKey struct{}

func withCompany(ctx context.Context, company Company) context.Context {
	return context.WithValue(ctx, companyCtxKey{}, company)
}

func currentCompany(ctx context.Context) (Company, bool) {
	c, ok := ctx.Value(companyCtxKey{}).(Company)
	return c, ok
}
