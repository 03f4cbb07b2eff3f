// Package mqtt publishes solved schedules over MQTT with Eclipse Paho.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremon "github.com/kilianp07/unitcommit/core/monitoring"
	coremqtt "github.com/kilianp07/unitcommit/core/mqtt"
	"github.com/kilianp07/unitcommit/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	// Retain keeps the last schedule on the broker for late subscribers.
	Retain     bool        `json:"retain"`
	UseTLS     bool        `json:"use_tls"`
	ClientCert string      `json:"client_cert"`
	ClientKey  string      `json:"client_key"`
	CABundle   string      `json:"ca_bundle"`
	MaxRetries int         `json:"max_retries"`
	BackoffMS  int         `json:"backoff_ms"`
	TLSConfig  *tls.Config `json:"-"`
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "unitcommit"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "unitcommit"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the QoS level and TLS settings.
func (c Config) Validate() error {
	if c.QoS > 2 {
		return fmt.Errorf("mqtt: qos must be 0, 1 or 2, got %d", c.QoS)
	}
	if c.UseTLS && c.TLSConfig == nil && (c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "") {
		return fmt.Errorf("mqtt: tls requires client_cert, client_key and ca_bundle")
	}
	if strings.ContainsAny(c.TopicPrefix, "+#") {
		return fmt.Errorf("mqtt: topic prefix must not contain wildcards")
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher implements core mqtt.SchedulePublisher on a Paho client.
// Availability is announced on <prefix>/status, with a last will of
// "offline".
type Publisher struct {
	cli        pahoClient
	cfg        Config
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

// NewPublisher connects to the broker.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	p := &Publisher{
		cfg:        cfg,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected")
		p.announce()
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	// Assigned before Connect: OnConnect may fire before Connect returns.
	p.cli = newMQTTClient(opts)
	if token := p.cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return p, nil
}

// announce marks the publisher online, replacing the retained last will.
func (p *Publisher) announce() {
	if token := p.cli.Publish(p.statusTopic(), p.cfg.QoS, true, "online"); token.Wait() && token.Error() != nil {
		p.logger.Errorf("status publish error: %v", token.Error())
	}
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.SetWill(topic(cfg.TopicPrefix, "status"), "offline", cfg.QoS, true)
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func topic(parts ...string) string { return strings.Join(parts, "/") }

func (p *Publisher) statusTopic() string { return topic(p.cfg.TopicPrefix, "status") }

// ScheduleTopic is where the full schedule of a model is published.
func (p *Publisher) ScheduleTopic(model string) string {
	return topic(p.cfg.TopicPrefix, model, "schedule")
}

// UnitTopic is where the trajectory of one unit is published.
func (p *Publisher) UnitTopic(model, unit string) string {
	return topic(p.cfg.TopicPrefix, model, "units", unit)
}

// PublishSchedule publishes the full schedule, then one message per unit.
// Failures are reported to the error monitor with the model tag.
func (p *Publisher) PublishSchedule(ctx context.Context, msg coremqtt.ScheduleMessage) error {
	if !p.cli.IsConnected() {
		return coremqtt.ErrNotConnected
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := p.publish(ctx, p.ScheduleTopic(msg.Model), payload); err != nil {
		coremon.CaptureException(err, map[string]string{"module": "mqtt", "model": msg.Model, "run_id": msg.RunID})
		return err
	}
	for _, us := range msg.Schedule.Units {
		unitPayload, err := json.Marshal(coremqtt.UnitMessage{
			RunID: msg.RunID, Unit: us.Unit, Timestamp: msg.Timestamp, Intervals: us.Intervals,
		})
		if err != nil {
			return err
		}
		if err := p.publish(ctx, p.UnitTopic(msg.Model, us.Unit), unitPayload); err != nil {
			coremon.CaptureException(err, map[string]string{"module": "mqtt", "model": msg.Model, "unit": us.Unit})
			return err
		}
	}
	p.logger.Infof("published schedule %s for %d units", msg.RunID, len(msg.Schedule.Units))
	return nil
}

// publish sends payload with exponential backoff between attempts.
func (p *Publisher) publish(ctx context.Context, t string, payload []byte) error {
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(t, p.cfg.QoS, p.cfg.Retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.logger.Errorf("publish attempt %d on %s failed: %v", attempt+1, t, publishErr)
		if attempt == p.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	return publishErr
}

// Close gracefully closes the MQTT connection.
func (p *Publisher) Close() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
