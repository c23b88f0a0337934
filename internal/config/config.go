package config

import (
	"strings"
	"time"

	"mesctx/internal/util"
	"mesctx/pkg/logger"
	"mesctx/pkg/source"
	"mesctx/pkg/source/rest"
)

// Sources builds one REST client per configured backend service.
//
// SOURCE_SERVICES is a comma separated list of name=baseURL pairs, e.g.
// "erp=http://localhost:9001,mes=http://localhost:9002". The order of
// the list is the probe order.
func Sources() []source.Client {
	entries := util.GetEnvList("SOURCE_SERVICES")
	if len(entries) == 0 {
		logger.Fatal("SOURCE_SERVICES is not configured")
	}

	timeout := time.Duration(util.GetEnvNumeric("SOURCE_TIMEOUT_MS", 5000)) * time.Millisecond

	clients := make([]source.Client, 0, len(entries))
	for _, entry := range entries {
		name, baseURL, ok := strings.Cut(entry, "=")
		if !ok || name == "" || baseURL == "" {
			logger.Fatal("Malformed SOURCE_SERVICES entry", "entry", entry)
		}
		clients = append(clients, rest.NewClient(rest.NewClientParams{
			Name:    name,
			BaseURL: baseURL,
			Timeout: timeout,
		}))
		logger.Debug("[Config] Registered source", "name", name, "base_url", baseURL)
	}
	return clients
}

// GraphTTL returns the discovery cache lifetime.
func GraphTTL() time.Duration {
	return time.Duration(util.GetEnvNumeric("GRAPH_CACHE_TTL_MIN", 30)) * time.Minute
}
