// v0
// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ANALYTICS_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.properties"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, defaultListenAddress, cfg.ListenAddress)
	require.Equal(t, defaultPlannerURL, cfg.PlannerBaseURL)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "planning.events", cfg.PlanEventsTopic)
	require.Equal(t, 5, cfg.Breaker.MaxFailures)
	require.False(t, cfg.EventsEnabled)
	require.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestLoadPropertiesThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.properties")
	props := "# analytics\n" +
		"listen_address=:9000\n" +
		"planner_base_url=http://planner:5000/\n" +
		"planner_max_retries=0\n" +
		"circuit.maxFailures=3\n" +
		"circuit.resetSeconds=1.5\n" +
		"cache_ttl_ms=0\n" +
		"cors_origins=http://a.test, http://b.test\n" +
		"unknown_key=ignored\n"
	require.NoError(t, os.WriteFile(path, []byte(props), 0o600))
	t.Setenv("ANALYTICS_CONFIG_PATH", path)
	t.Setenv("ANALYTICS_LISTEN_ADDRESS", ":9100")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("ANALYTICS_EVENTS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9100", cfg.ListenAddress)
	require.Equal(t, "http://planner:5000", cfg.PlannerBaseURL)
	require.Equal(t, 0, cfg.PlannerMaxRetries)
	require.Equal(t, 3, cfg.Breaker.MaxFailures)
	require.Equal(t, 1500*time.Millisecond, cfg.Breaker.ResetTimeout)
	require.Zero(t, cfg.CacheTTL)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.True(t, cfg.EventsEnabled)
	require.Equal(t, path, cfg.ConfigPath)
}

func TestPrefixedEnvWinsOverShared(t *testing.T) {
	t.Setenv("ANALYTICS_CONFIG_PATH", filepath.Join(t.TempDir(), "none.properties"))
	t.Setenv("KAFKA_BROKERS", "shared:9092")
	t.Setenv("ANALYTICS_KAFKA_BROKERS", "own:9092")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"own:9092"}, cfg.KafkaBrokers)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.yaml")
	doc := "listen_address: \":9200\"\n" +
		"kafka_brokers:\n  - k1:9092\n  - k2:9092\n" +
		"events_enabled: true\n" +
		"planner_timeout_ms: 2500\n" +
		"kafka_cb_enabled: true\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	t.Setenv("ANALYTICS_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9200", cfg.ListenAddress)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.True(t, cfg.EventsEnabled)
	require.True(t, cfg.KafkaBreaker.Enabled)
	require.Equal(t, 2500*time.Millisecond, cfg.PlannerTimeout)
}

func TestLoadMQTTSettings(t *testing.T) {
	t.Setenv("ANALYTICS_CONFIG_PATH", filepath.Join(t.TempDir(), "none.properties"))

	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.MQTTEnabled)
	require.Equal(t, "tcp://mosquitto:1883", cfg.MQTTBroker)
	require.Equal(t, "planning/events", cfg.MQTTTopic)
	require.Equal(t, byte(1), cfg.MQTTQoS)

	t.Setenv("ANALYTICS_MQTT_ENABLED", "true")
	t.Setenv("MQTT_BROKER", "tcp://edge:1883")
	t.Setenv("ANALYTICS_MQTT_TOPIC", "exams/plans")
	t.Setenv("ANALYTICS_MQTT_QOS", "0")

	cfg, err = Load()
	require.NoError(t, err)
	require.True(t, cfg.MQTTEnabled)
	require.Equal(t, "tcp://edge:1883", cfg.MQTTBroker)
	require.Equal(t, "exams/plans", cfg.MQTTTopic)
	require.Equal(t, "analytics-dashboard", cfg.MQTTClientID)
	require.Zero(t, cfg.MQTTQoS)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad_line.properties":    "listen_address\n",
		"bad_timeout.properties": "planner_timeout_ms=-5\n",
		"bad_bool.properties":    "events_enabled=maybe\n",
		"bad_qos.properties":     "mqtt_qos=3\n",
		"bad_yaml.yaml":          "listen_address: [unclosed\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			t.Setenv("ANALYTICS_CONFIG_PATH", path)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestEnvErrorNamesVariable(t *testing.T) {
	t.Setenv("ANALYTICS_CONFIG_PATH", filepath.Join(t.TempDir(), "none.properties"))
	t.Setenv("ANALYTICS_CACHE_TTL_MS", "soon")

	_, err := Load()
	require.ErrorContains(t, err, "ANALYTICS_CACHE_TTL_MS")
}
