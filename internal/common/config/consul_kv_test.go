package config

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
)

func newFakeConsulKV(t *testing.T, doc string) (host string, port int) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/kv/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Consul-Index", "1")
		w.Header().Set("X-Consul-KnownLeader", "true")
		w.Header().Set("X-Consul-LastContact", "0")
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"Key":   strings.TrimPrefix(r.URL.Path, "/v1/kv/"),
			"Value": base64.StdEncoding.EncodeToString([]byte(doc)),
		}})
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	p, _ := strconv.Atoi(u.Port())
	return u.Hostname(), p
}

func TestLoadConfigFromConsulKV(t *testing.T) {
	host, port := newFakeConsulKV(t, `{"server":{"name":"kv-service","http_port":9090},"telemetry":{"max_speed_kmh":140}}`)

	cfg, err := LoadConfigFromConsulKV(host, port, "frotalink/config")
	if err != nil {
		t.Fatalf("LoadConfigFromConsulKV: %v", err)
	}
	if cfg.Server.Name != "kv-service" || cfg.Server.HTTPPort != 9090 {
		t.Fatalf("kv values not applied: %+v", cfg.Server)
	}
	if cfg.Telemetry.MaxSpeedKMH != 140 {
		t.Fatalf("max_speed_kmh = %v, want 140", cfg.Telemetry.MaxSpeedKMH)
	}
	// KV 没覆盖的字段保持默认值
	if cfg.Database.Port != 3306 {
		t.Fatalf("database defaults lost: %+v", cfg.Database)
	}
}

func TestLoadConfigFromConsulKVEmptyKey(t *testing.T) {
	if _, err := LoadConfigFromConsulKV("localhost", 8500, ""); err == nil {
		t.Fatal("empty key must error")
	}
}
