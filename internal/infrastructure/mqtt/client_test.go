package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/nerrad567/languard-core/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "languard-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"DevicePresence", Topics{}.DevicePresence("aa:bb:cc:dd:ee:ff"), "languard/device/aa:bb:cc:dd:ee:ff/presence"},
		{"AllDevicePresence", Topics{}.AllDevicePresence(), "languard/device/+/presence"},
		{"CoreSummary", Topics{}.CoreSummary(), "languard/core/summary"},
		{"CoreBlock", Topics{}.CoreBlock("aa:bb:cc:dd:ee:ff"), "languard/core/block/aa:bb:cc:dd:ee:ff"},
		{"AllCoreBlocks", Topics{}.AllCoreBlocks(), "languard/core/block/+"},
		{"SystemStatus", Topics{}.SystemStatus(), "languard/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestBuildClientOptions(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*config.MQTTConfig)
		wantScheme string
		wantUser   string
		wantTLS    bool
	}{
		{name: "plain", modify: func(*config.MQTTConfig) {}, wantScheme: "tcp"},
		{
			name:       "tls",
			modify:     func(c *config.MQTTConfig) { c.Broker.TLS = true },
			wantScheme: "ssl",
			wantTLS:    true,
		},
		{
			name: "credentials",
			modify: func(c *config.MQTTConfig) {
				c.Auth.Username = "languard"
				c.Auth.Password = "secret"
			},
			wantScheme: "tcp",
			wantUser:   "languard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)

			opts := buildClientOptions(cfg)

			if len(opts.Servers) != 1 {
				t.Fatalf("Servers = %v, want one broker", opts.Servers)
			}
			server := opts.Servers[0]
			if server.Scheme != tt.wantScheme {
				t.Errorf("scheme = %q, want %q", server.Scheme, tt.wantScheme)
			}
			if server.Host != "127.0.0.1:"+strconv.Itoa(cfg.Broker.Port) {
				t.Errorf("host = %q", server.Host)
			}
			if opts.ClientID != "languard-test" {
				t.Errorf("ClientID = %q", opts.ClientID)
			}
			if opts.Username != tt.wantUser {
				t.Errorf("Username = %q, want %q", opts.Username, tt.wantUser)
			}
			if (opts.TLSConfig != nil && opts.TLSConfig.MinVersion == tlsMinVersion) != tt.wantTLS {
				t.Errorf("TLSConfig = %+v, wantTLS %v", opts.TLSConfig, tt.wantTLS)
			}
			if !opts.AutoReconnect || !opts.CleanSession {
				t.Error("expected auto-reconnect and clean session")
			}
		})
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, "languard-test", 1)

	if !opts.WillEnabled {
		t.Fatal("WillEnabled = false")
	}
	if opts.WillTopic != "languard/system/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}
	if !opts.WillRetained {
		t.Error("WillRetained = false, want true")
	}

	var p statusPayload
	if err := json.Unmarshal(opts.WillPayload, &p); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if p.Status != "offline" || p.Reason != reasonUnexpected || p.ClientID != "languard-test" {
		t.Errorf("will payload = %+v", p)
	}
}

func TestStatusPayloads(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus string
		wantReason string
	}{
		{"online", buildOnlinePayload("core"), "online", ""},
		{"offline", buildOfflinePayload("core"), "offline", reasonShutdown},
		{"quoted client id", buildOnlinePayload(`a"b`), "online", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p statusPayload
			if err := json.Unmarshal([]byte(tt.payload), &p); err != nil {
				t.Fatalf("payload %q is not JSON: %v", tt.payload, err)
			}
			if p.Status != tt.wantStatus || p.Reason != tt.wantReason {
				t.Errorf("payload = %+v", p)
			}
			if p.Timestamp == "" {
				t.Error("timestamp missing")
			}
		})
	}
}

func TestPublishValidation(t *testing.T) {
	c := &Client{cfg: testConfig()}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"bad qos", "languard/core/summary", []byte("x"), 3, ErrInvalidQoS},
		{"oversized", "languard/core/summary", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"disconnected", "languard/core/summary", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublishJSON_EncodeError(t *testing.T) {
	c := &Client{cfg: testConfig()}

	err := c.PublishJSON("languard/core/summary", make(chan int), false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Fatalf("PublishJSON() error = %v, want ErrPublishFailed", err)
	}
	if !strings.Contains(err.Error(), "encoding payload") {
		t.Errorf("error %q should mention encoding", err)
	}
}

func TestDisconnectedClient(t *testing.T) {
	c := &Client{cfg: testConfig()}

	if c.IsConnected() {
		t.Error("IsConnected() = true for a client that never connected")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) = %v, want context.Canceled", err)
	}
}

func TestSetLogger_NilRestoresNoop(t *testing.T) {
	c := &Client{}
	c.SetLogger(nil)
	c.getLogger().Warn("ignored")
}

// TestConnect_Broker exercises a real broker. Set LANGUARD_TEST_MQTT_BROKER
// to host:port to run it.
func TestConnect_Broker(t *testing.T) {
	addr := os.Getenv("LANGUARD_TEST_MQTT_BROKER")
	if addr == "" {
		t.Skip("LANGUARD_TEST_MQTT_BROKER not set")
	}

	host, portStr, ok := strings.Cut(addr, ":")
	if !ok {
		t.Fatalf("LANGUARD_TEST_MQTT_BROKER = %q, want host:port", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("invalid port %q: %v", portStr, err)
	}

	cfg := testConfig()
	cfg.Broker.Host = host
	cfg.Broker.Port = port

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}
	if err := client.PublishJSON(Topics{}.CoreSummary(), map[string]int{"online": 1}, true); err != nil {
		t.Errorf("PublishJSON() = %v", err)
	}
}
