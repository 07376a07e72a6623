package ratelimit

import "strings"

// MatchEndpoint resolves the endpoint configuration for a request, or nil
// when only the default limit applies. Exact path+method matches win;
// configs whose path ends in "/" act as prefixes, so "/companies/" covers
// "/companies/{id}".
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	// Health probes are never throttled.
	if path == "/health" && method == "GET" {
		return &EndpointConfig{Limit: 0}
	}

	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}

	for i := range configs {
		cfg := &configs[i]
		if cfg.Method == method && strings.HasSuffix(cfg.Path, "/") && strings.HasPrefix(path, cfg.Path) {
			return cfg
		}
	}
	return nil
}
