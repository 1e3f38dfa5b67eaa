package middleware

import "net/http"

// PreflightStatus rewrites accepted CORS pre-flight responses from
// 200 to 204. It wraps the cors handler, which terminates pre-flights
// with 200; a pre-flight counts as accepted when the handler granted
// an Access-Control-Allow-Origin.
func PreflightStatus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			next.ServeHTTP(&preflightWriter{ResponseWriter: w}, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type preflightWriter struct {
	http.ResponseWriter
}

func (w *preflightWriter) WriteHeader(status int) {
	if status == http.StatusOK && w.Header().Get("Access-Control-Allow-Origin") != "" {
		status = http.StatusNoContent
	}
	w.ResponseWriter.WriteHeader(status)
}
