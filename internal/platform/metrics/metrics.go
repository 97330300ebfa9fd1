package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler exposes the default prometheus registry. Module metrics register
// themselves through promauto, so mounting this is all main has to do.
func Handler() http.Handler {
	return promhttp.Handler()
}
