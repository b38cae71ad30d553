package business

import (
	"context"
	"net/http"

	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
)

// HeaderBusinessID selects the business a request operates on. Without it the
// default active business applies.
const HeaderBusinessID = "X-Business-ID"

type contextKey struct{}

// WithBusiness stores the resolved business on the context.
func WithBusiness(ctx context.Context, b *Business) context.Context {
	return context.WithValue(ctx, contextKey{}, b)
}

// FromContext returns the business resolved for this request.
func FromContext(ctx context.Context) (*Business, error) {
	b, _ := ctx.Value(contextKey{}).(*Business)
	if b == nil {
		return nil, httpx.Validationf("no business configured; register one first")
	}
	return b, nil
}

// SheetFromContext is a shorthand for the resolved business's spreadsheet ID.
func SheetFromContext(ctx context.Context) (string, error) {
	b, err := FromContext(ctx)
	if err != nil {
		return "", err
	}
	return b.SheetID, nil
}

// Resolver middleware resolves the request's business from the header or the
// default and stores it on the context. Requests for the registry itself
// mount outside this middleware.
func Resolver(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				b   *Business
				err error
			)
			if id := r.Header.Get(HeaderBusinessID); id != "" {
				b, err = svc.Get(r.Context(), id)
			} else {
				b, err = svc.Current(r.Context())
			}
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			if b == nil {
				httpx.Problem(w, http.StatusUnprocessableEntity, "No business configured",
					"register a business before using this endpoint")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithBusiness(r.Context(), b)))
		})
	}
}
