// v1
// internal/config/config.go
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"projetbda/analytics/internal/circuitbreaker"
)

// Config captures all runtime settings required by the analytics service.
// Values come from environment variables, a properties or YAML file, or fall
// back to defaults so the service can boot with minimal setup.
type Config struct {
	// ListenAddress defines the TCP address used by the HTTP server.
	ListenAddress string
	// LogFilePath is the absolute or relative path to the log file.
	LogFilePath string
	// HTTPReadTimeout bounds the time to read incoming requests.
	HTTPReadTimeout time.Duration
	// HTTPWriteTimeout bounds the time to write responses.
	HTTPWriteTimeout time.Duration
	// ShutdownTimeout limits graceful shutdown attempts.
	ShutdownTimeout time.Duration
	// ConfigPath records the file used to load values.
	ConfigPath string

	// PlannerBaseURL is the root of the planning backend API.
	PlannerBaseURL string
	// PlannerTimeout bounds a single planner request.
	PlannerTimeout time.Duration
	// PlannerMaxRetries is the number of extra attempts on upstream failures.
	PlannerMaxRetries int
	PlannerBackoff    time.Duration
	PlannerJitter     time.Duration
	// Breaker guards the planner HTTP client.
	Breaker circuitbreaker.Config

	// CacheTTL is how long a complete dashboard is served from memory.
	// Zero disables caching.
	CacheTTL time.Duration
	// CORSOrigins lists the origins allowed by the browser dashboard.
	CORSOrigins []string

	// EventsEnabled toggles the plan event consumer.
	EventsEnabled     bool
	KafkaBrokers      []string
	PlanEventsTopic   string
	PlanEventsGroupID string
	PlanEventsPoll    time.Duration
	// KafkaBreaker guards the plan event reader.
	KafkaBreaker circuitbreaker.KafkaSettings

	// MQTTEnabled toggles the MQTT plan event subscriber, which runs next to
	// or instead of the Kafka consumer.
	MQTTEnabled  bool
	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
	MQTTQoS      byte
}

const (
	defaultListenAddress = ":8090"
	defaultLogFile       = "logs/analytics.log"
	defaultReadTimeout   = 5 * time.Second
	defaultWriteTimeout  = 15 * time.Second
	defaultShutdown      = 5 * time.Second
	defaultConfigPath    = "analytics.properties"
	defaultPlannerURL    = "http://localhost:5000"
	defaultPlannerTO     = 10 * time.Second
	defaultRetries       = 2
	defaultBackoff       = 200 * time.Millisecond
	defaultJitter        = 100 * time.Millisecond
	defaultCacheTTL      = 30 * time.Second
	defaultCORSOrigins   = "*"
	defaultKafkaBrokers  = "kafka:9092"
	defaultTopic         = "planning.events"
	defaultGroup         = "analytics-dashboard"
	defaultPollTimeout   = 5 * time.Second
	defaultMQTTBroker    = "tcp://mosquitto:1883"
	defaultMQTTTopic     = "planning/events"
	defaultMQTTClientID  = "analytics-dashboard"
	defaultMQTTQoS       = 1
)

// Load resolves configuration by layering defaults, an optional properties or
// YAML file, and finally environment variables. The file location can be
// overridden with ANALYTICS_CONFIG_PATH.
func Load() (Config, error) {
	cfg := defaults()

	path := strings.TrimSpace(os.Getenv("ANALYTICS_CONFIG_PATH"))
	if path == "" {
		path = defaultConfigPath
	}
	cfg.ConfigPath = path

	if err := applyFile(&cfg, path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Breaker.Validate(); err != nil {
		return Config{}, fmt.Errorf("planner breaker: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		ListenAddress:     defaultListenAddress,
		LogFilePath:       filepath.Clean(defaultLogFile),
		HTTPReadTimeout:   defaultReadTimeout,
		HTTPWriteTimeout:  defaultWriteTimeout,
		ShutdownTimeout:   defaultShutdown,
		PlannerBaseURL:    defaultPlannerURL,
		PlannerTimeout:    defaultPlannerTO,
		PlannerMaxRetries: defaultRetries,
		PlannerBackoff:    defaultBackoff,
		PlannerJitter:     defaultJitter,
		Breaker:           circuitbreaker.DefaultConfig(),
		CacheTTL:          defaultCacheTTL,
		CORSOrigins:       splitAndTrim(defaultCORSOrigins),
		KafkaBrokers:      splitAndTrim(defaultKafkaBrokers),
		PlanEventsTopic:   defaultTopic,
		PlanEventsGroupID: defaultGroup,
		PlanEventsPoll:    defaultPollTimeout,
		KafkaBreaker:      circuitbreaker.DefaultKafkaSettings(),
		MQTTBroker:        defaultMQTTBroker,
		MQTTTopic:         defaultMQTTTopic,
		MQTTClientID:      defaultMQTTClientID,
		MQTTQoS:           defaultMQTTQoS,
	}
}

func applyFile(cfg *Config, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return applyYAML(cfg, path)
	default:
		return applyProperties(cfg, path)
	}
}

func applyProperties(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, ";") {
			continue
		}
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid properties entry on line %d", line)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if err := setProperty(cfg, key, value); err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read properties: %w", err)
	}
	return nil
}

// applyYAML reads a flat YAML mapping using the same keys as the properties
// format. Sequences are joined with commas.
func applyYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for key, raw := range doc {
		if err := setProperty(cfg, key, yamlScalar(raw)); err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
	}
	return nil
}

func yamlScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, yamlScalar(item))
		}
		return strings.Join(parts, ",")
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func setProperty(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "listen_address":
		if value == "" {
			return errors.New("listen_address cannot be empty")
		}
		cfg.ListenAddress = value
	case "log_path":
		if value == "" {
			return errors.New("log_path cannot be empty")
		}
		cfg.LogFilePath = filepath.Clean(value)
	case "http_read_timeout_ms":
		return setMillis(&cfg.HTTPReadTimeout, value)
	case "http_write_timeout_ms":
		return setMillis(&cfg.HTTPWriteTimeout, value)
	case "shutdown_timeout_ms":
		return setMillis(&cfg.ShutdownTimeout, value)
	case "planner_base_url":
		if value == "" {
			return errors.New("planner_base_url cannot be empty")
		}
		cfg.PlannerBaseURL = strings.TrimRight(value, "/")
	case "planner_timeout_ms":
		return setMillis(&cfg.PlannerTimeout, value)
	case "planner_max_retries":
		n, err := parseNonNegative(value)
		if err != nil {
			return err
		}
		cfg.PlannerMaxRetries = n
	case "planner_backoff_ms":
		return setMillis(&cfg.PlannerBackoff, value)
	case "planner_jitter_ms":
		d, err := parseNonNegativeMillis(value)
		if err != nil {
			return err
		}
		cfg.PlannerJitter = d
	case "circuit.maxfailures":
		n, err := parsePositive(value)
		if err != nil {
			return err
		}
		cfg.Breaker.MaxFailures = n
	case "circuit.resetseconds":
		secs, err := strconv.ParseFloat(value, 64)
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid reset seconds %q", value)
		}
		cfg.Breaker.ResetTimeout = time.Duration(secs * float64(time.Second))
	case "circuit.successestoclose":
		n, err := parsePositive(value)
		if err != nil {
			return err
		}
		cfg.Breaker.SuccessesToClose = n
	case "cache_ttl_ms":
		d, err := parseNonNegativeMillis(value)
		if err != nil {
			return err
		}
		cfg.CacheTTL = d
	case "cors_origins":
		origins := splitAndTrim(value)
		if len(origins) == 0 {
			return errors.New("cors_origins cannot be empty")
		}
		cfg.CORSOrigins = origins
	case "events_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		cfg.EventsEnabled = b
	case "kafka_brokers":
		brokers := splitAndTrim(value)
		if len(brokers) == 0 {
			return errors.New("kafka_brokers cannot be empty")
		}
		cfg.KafkaBrokers = brokers
	case "plan_events_topic":
		if value == "" {
			return errors.New("plan_events_topic cannot be empty")
		}
		cfg.PlanEventsTopic = value
	case "plan_events_group_id":
		if value == "" {
			return errors.New("plan_events_group_id cannot be empty")
		}
		cfg.PlanEventsGroupID = value
	case "plan_events_poll_timeout_ms":
		return setMillis(&cfg.PlanEventsPoll, value)
	case "kafka_cb_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		cfg.KafkaBreaker.Enabled = b
	case "kafka_cb_failure_threshold":
		n, err := parsePositive(value)
		if err != nil {
			return err
		}
		cfg.KafkaBreaker.FailureThreshold = n
	case "kafka_cb_open_timeout_ms":
		return setMillis(&cfg.KafkaBreaker.OpenTimeout, value)
	case "mqtt_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		cfg.MQTTEnabled = b
	case "mqtt_broker":
		if value == "" {
			return errors.New("mqtt_broker cannot be empty")
		}
		cfg.MQTTBroker = value
	case "mqtt_topic":
		if value == "" {
			return errors.New("mqtt_topic cannot be empty")
		}
		cfg.MQTTTopic = value
	case "mqtt_client_id":
		if value == "" {
			return errors.New("mqtt_client_id cannot be empty")
		}
		cfg.MQTTClientID = value
	case "mqtt_qos":
		n, err := strconv.ParseUint(value, 10, 8)
		if err != nil || n > 2 {
			return fmt.Errorf("mqtt_qos must be 0, 1 or 2, got %q", value)
		}
		cfg.MQTTQoS = byte(n)
	default:
		// Unknown keys are ignored to keep the loader forward-compatible.
	}
	return nil
}

// envKeys maps environment variables onto file keys. The second name, when
// set, is a shared fallback consulted only if the prefixed one is absent.
var envKeys = []struct {
	key      string
	primary  string
	fallback string
}{
	{"listen_address", "ANALYTICS_LISTEN_ADDRESS", ""},
	{"log_path", "ANALYTICS_LOG_PATH", ""},
	{"http_read_timeout_ms", "ANALYTICS_HTTP_READ_TIMEOUT_MS", ""},
	{"http_write_timeout_ms", "ANALYTICS_HTTP_WRITE_TIMEOUT_MS", ""},
	{"shutdown_timeout_ms", "ANALYTICS_SHUTDOWN_TIMEOUT_MS", ""},
	{"planner_base_url", "ANALYTICS_PLANNER_URL", "PLANNER_URL"},
	{"planner_timeout_ms", "ANALYTICS_PLANNER_TIMEOUT_MS", ""},
	{"planner_max_retries", "ANALYTICS_PLANNER_MAX_RETRIES", ""},
	{"planner_backoff_ms", "ANALYTICS_PLANNER_BACKOFF_MS", ""},
	{"planner_jitter_ms", "ANALYTICS_PLANNER_JITTER_MS", ""},
	{"circuit.maxfailures", "ANALYTICS_CB_MAX_FAILURES", ""},
	{"circuit.resetseconds", "ANALYTICS_CB_RESET_SECONDS", ""},
	{"circuit.successestoclose", "ANALYTICS_CB_SUCCESSES_TO_CLOSE", ""},
	{"cache_ttl_ms", "ANALYTICS_CACHE_TTL_MS", ""},
	{"cors_origins", "ANALYTICS_CORS_ORIGINS", ""},
	{"events_enabled", "ANALYTICS_EVENTS_ENABLED", ""},
	{"kafka_brokers", "ANALYTICS_KAFKA_BROKERS", "KAFKA_BROKERS"},
	{"plan_events_topic", "ANALYTICS_PLAN_EVENTS_TOPIC", "PLAN_EVENTS_TOPIC"},
	{"plan_events_group_id", "ANALYTICS_PLAN_EVENTS_GROUP", ""},
	{"plan_events_poll_timeout_ms", "ANALYTICS_PLAN_EVENTS_POLL_TIMEOUT_MS", ""},
	{"kafka_cb_enabled", "ANALYTICS_KAFKA_CB_ENABLED", ""},
	{"kafka_cb_failure_threshold", "ANALYTICS_KAFKA_CB_FAILURE_THRESHOLD", ""},
	{"kafka_cb_open_timeout_ms", "ANALYTICS_KAFKA_CB_OPEN_TIMEOUT_MS", ""},
	{"mqtt_enabled", "ANALYTICS_MQTT_ENABLED", ""},
	{"mqtt_broker", "ANALYTICS_MQTT_BROKER", "MQTT_BROKER"},
	{"mqtt_topic", "ANALYTICS_MQTT_TOPIC", ""},
	{"mqtt_client_id", "ANALYTICS_MQTT_CLIENT_ID", ""},
	{"mqtt_qos", "ANALYTICS_MQTT_QOS", ""},
}

func applyEnv(cfg *Config) error {
	for _, k := range envKeys {
		name := k.primary
		v, ok := lookupEnvTrimmed(name)
		if !ok && k.fallback != "" {
			name = k.fallback
			v, ok = lookupEnvTrimmed(name)
		}
		if !ok {
			continue
		}
		if err := setProperty(cfg, k.key, v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func lookupEnvTrimmed(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitAndTrim(raw string) []string {
	fields := strings.Split(raw, ",")
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		trimmed := strings.TrimSpace(field)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func setMillis(dst *time.Duration, v string) error {
	d, err := parsePositiveMillis(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func parsePositiveMillis(v string) (time.Duration, error) {
	ms, err := parsePositive(v)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func parseNonNegativeMillis(v string) (time.Duration, error) {
	ms, err := parseNonNegative(v)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func parsePositive(v string) (int, error) {
	n, err := parseNonNegative(v)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("value must be greater than zero")
	}
	return n, nil
}

func parseNonNegative(v string) (int, error) {
	if strings.TrimSpace(v) == "" {
		return 0, errors.New("value cannot be empty")
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %w", err)
	}
	if n < 0 {
		return 0, errors.New("value must not be negative")
	}
	return n, nil
}
