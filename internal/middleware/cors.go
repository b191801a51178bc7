package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/cors"
)

// CORS negotiates browser origins with go-chi/cors and additionally stamps the
// configured Allow-Methods/Allow-Headers (and a wildcard Allow-Origin when "*" is
// allowed) on every response, preflight or not. OPTIONS requests are passed on
// to the router so routes can answer them explicitly.
func CORS(origins, methods, headers []string) func(http.Handler) http.Handler {
	negotiate := cors.Handler(cors.Options{
		AllowedOrigins:     origins,
		AllowedMethods:     methods,
		AllowedHeaders:     headers,
		OptionsPassthrough: true,
		MaxAge:             300,
	})

	wildcard := slices.Contains(origins, "*")
	allowMethods := strings.Join(methods, ", ")
	allowHeaders := strings.Join(headers, ", ")

	return func(next http.Handler) http.Handler {
		stamp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if wildcard {
				h.Set("Access-Control-Allow-Origin", "*")
			}
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			next.ServeHTTP(w, r)
		})
		return negotiate(stamp)
	}
}
