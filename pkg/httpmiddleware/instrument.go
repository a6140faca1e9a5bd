package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides the OpenTelemetry providers used by Instrument.
// *app.Telemetry from go-faster/sdk satisfies it.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// Instrument returns a middleware that records a server span and the standard
// HTTP metrics for every request.
func Instrument(service string, t Telemetry) Middleware {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, service,
			otelhttp.WithTracerProvider(t.TracerProvider()),
			otelhttp.WithMeterProvider(t.MeterProvider()),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method
			}),
		)
	}
}

// Labeler returns a middleware that names the current span after the matched
// route and adds the route to the HTTP metric labels. Unmatched requests keep
// the method-only name. Like LogRequests it must run inside a chi router.
func Labeler() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			rctx := chi.RouteContext(r.Context())
			if rctx == nil || rctx.RoutePattern() == "" {
				return
			}
			route := rctx.RoutePattern()
			trace.SpanFromContext(r.Context()).SetName(r.Method + " " + route)
			if l, ok := otelhttp.LabelerFromContext(r.Context()); ok {
				l.Add(attribute.String("http.route", route))
			}
		})
	}
}
