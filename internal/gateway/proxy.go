package gateway

import (
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"EcoFinds/pkg/kit"
)

// NewReverseProxy forwards to target. Upstream failures become a JSON
// 502 instead of the stdlib's empty response.
func NewReverseProxy(target string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("proxy target must be an absolute url: " + target)
	}

	p := httputil.NewSingleHostReverseProxy(u)
	base := p.Director
	p.Director = func(r *http.Request) {
		base(r)
		r.Host = u.Host
		r.Header.Del("Authorization")
	}
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if log != nil {
			log.Warn("proxy upstream failed", zap.String("target", u.Host), zap.String("path", r.URL.Path), zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusBadGateway, "predictor unavailable", nil)
	}
	return p, nil
}
