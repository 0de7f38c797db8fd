package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/DavidRHerbert/webex-mcp/internal/observability"
)

const chatPath = "/api/chat"

// newUpstreamProxy forwards chat and MCP traffic to the chat backend.
// Our own bearer token is stripped from /api/chat; the chat payload
// carries the Webex token in its body.
func (s *Server) newUpstreamProxy(raw string) (http.Handler, error) {
	target, err := url.Parse(raw)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid chat upstream %q", raw)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if pr.In.URL.Path == chatPath && s.config.AuthToken != "" {
				pr.Out.Header.Del("Authorization")
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			if !strings.HasSuffix(resp.Request.URL.Path, chatPath) {
				return nil
			}
			if resp.StatusCode >= 400 {
				s.count(resp.Request.Context(), observability.MetricChatFailed)
			} else {
				s.count(resp.Request.Context(), observability.MetricChatProxied)
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Error("upstream request failed", "path", r.URL.Path, "error", err)
			if r.URL.Path == chatPath {
				s.count(r.Context(), observability.MetricChatFailed)
			}
			writeError(w, http.StatusBadGateway, "chat backend unreachable")
		},
	}
	return proxy, nil
}
