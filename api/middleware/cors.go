package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows GET and POST from the given origins, with any request header and
// credentials. Preflight responses are cached for an hour.
//
// Only preflights are gated: a simple request from an origin that is not
// listed is still served, just without Access-Control-* headers.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{"GET", "POST"}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = time.Hour

	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAny := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAny = true
		}
		allowed[origin] = struct{}{}
	}
	if allowAny {
		config.AllowOriginFunc = func(string) bool { return true }
	} else {
		config.AllowOrigins = allowedOrigins
	}

	handler := cors.New(config)
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if c.Request.Method != http.MethodOptions {
			if _, ok := allowed[origin]; origin != "" && !allowAny && !ok {
				c.Next()
				return
			}
		}

		// "*" is a literal header name once credentials are allowed, so the
		// preflight answers with exactly the headers the browser asked for.
		if requested := c.GetHeader("Access-Control-Request-Headers"); c.Request.Method == http.MethodOptions && requested != "" {
			c.Writer = &preflightWriter{ResponseWriter: c.Writer, allowHeaders: requested}
		}
		handler(c)
	}
}

// preflightWriter rewrites Access-Control-Allow-Headers just before the
// status line goes out.
type preflightWriter struct {
	gin.ResponseWriter
	allowHeaders string
}

func (w *preflightWriter) WriteHeader(code int) {
	w.setAllowHeaders()
	w.ResponseWriter.WriteHeader(code)
}

func (w *preflightWriter) WriteHeaderNow() {
	w.setAllowHeaders()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *preflightWriter) setAllowHeaders() {
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		w.Header().Set("Access-Control-Allow-Headers", w.allowHeaders)
	}
}
