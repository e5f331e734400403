package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	socks5Active, httpActive := 0, 0
	if s.conns != nil {
		socks5Active, httpActive = s.conns.ActiveConnections()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
		"memory_mb":      float64(mem.Alloc) / 1024 / 1024,
		"auth_enabled":   s.cfg.Auth.Enabled,
		"auth_backend":   s.cfg.Auth.Backend.Type,
		"listen": map[string]int{
			"socks5_port": s.cfg.Server.Socks5Port,
			"http_port":   s.cfg.Server.HTTPPort,
			"api_port":    s.cfg.Server.APIPort,
		},
		"connections_active": map[string]int{
			"socks5": socks5Active,
			"http":   httpActive,
		},
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
