// Package mqtt delivers outbound messages to the broker over MQTT. It is
// the only transport the helmet carries; when the broker is unreachable the
// rest of the system keeps running and sends simply report false.
package mqtt

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

type Config struct {
	BrokerURL string `yaml:"broker_url"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`

	// ClientIDPrefix prefixes the hardware-derived device ID.
	ClientIDPrefix string `yaml:"client_id_prefix"`

	KeepAliveSeconds      int  `yaml:"keep_alive_seconds"`
	ConnectRetries        int  `yaml:"connect_retries"`
	ConnectBackoffSeconds int  `yaml:"connect_backoff_seconds"`
	PublishTimeoutSeconds int  `yaml:"publish_timeout_seconds"`
	QoS                   byte `yaml:"qos"`
}

func (c *Config) ApplyDefaults() {
	if c.ClientIDPrefix == "" {
		c.ClientIDPrefix = "helmet"
	}
	if c.KeepAliveSeconds <= 0 {
		c.KeepAliveSeconds = 60
	}
	if c.ConnectRetries <= 0 {
		c.ConnectRetries = 3
	}
	if c.ConnectBackoffSeconds <= 0 {
		c.ConnectBackoffSeconds = 2
	}
	if c.PublishTimeoutSeconds <= 0 {
		c.PublishTimeoutSeconds = 5
	}
	if c.QoS > 2 {
		c.QoS = 1
	}
}

func (c *Config) Validate() error {
	if c.BrokerURL == "" {
		return errors.New("broker_url is required")
	}
	return nil
}

var errPublishTimeout = errors.New("publish token timed out")

// connectTimeout caps a single connect attempt so the bounded retry loop
// cannot be stretched by a black-holed broker address.
const connectTimeout = 10 * time.Second

// Sender is the ports.Sender implementation backed by paho. A Sender whose
// initial connect attempts all failed is still usable: auto-reconnect keeps
// working in the background and Send reports false meanwhile.
type Sender struct {
	cfg      Config
	client   paho.Client
	deviceID string
	obs      ports.Observability

	stopCh    chan struct{}
	closeOnce sync.Once
}

func NewSender(cfg Config, obs ports.Observability) (*Sender, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("mqtt config: %w", err)
	}

	s := &Sender{
		cfg:      cfg,
		deviceID: deviceID(cfg.ClientIDPrefix),
		obs:      obs,
		stopCh:   make(chan struct{}),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(s.deviceID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetKeepAlive(time.Duration(cfg.KeepAliveSeconds) * time.Second)
	opts.SetAutoReconnect(true)
	// ConnectRetry would make the connect token block until a broker
	// appears; the bounded loop in connect owns initial-connect retries.
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		obs.LogError("mqtt_connection_lost", err)
		obs.SetGauge("helmet_mqtt_connected", 0)
	})
	opts.SetOnConnectHandler(func(paho.Client) {
		obs.LogInfo("mqtt_connected", ports.Field{Key: "broker", Value: cfg.BrokerURL})
		obs.SetGauge("helmet_mqtt_connected", 1)
	})

	s.client = paho.NewClient(opts)
	s.connect()
	return s, nil
}

// connect makes a bounded number of attempts with fixed backoff and always
// returns within that bound. Failing every attempt is not fatal; emergency
// detection does not depend on the transport being up, so a slower retry
// loop keeps trying in the background instead.
func (s *Sender) connect() {
	backoff := time.Duration(s.cfg.ConnectBackoffSeconds) * time.Second
	for attempt := 1; attempt <= s.cfg.ConnectRetries; attempt++ {
		token := s.client.Connect()
		if token.Wait() && token.Error() == nil {
			return
		}
		s.obs.LogError("mqtt_connect_failed", token.Error(),
			ports.Field{Key: "attempt", Value: attempt},
			ports.Field{Key: "of", Value: s.cfg.ConnectRetries})
		if attempt < s.cfg.ConnectRetries {
			time.Sleep(backoff)
		}
	}
	go s.reconnect(backoff)
}

// reconnect keeps attempting the first connection after the bounded startup
// attempts were exhausted. Auto-reconnect only covers dropped connections,
// never a broker that was down at boot.
func (s *Sender) reconnect(backoff time.Duration) {
	t := time.NewTicker(backoff)
	defer t.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-t.C:
			if s.client.IsConnectionOpen() {
				return
			}
			token := s.client.Connect()
			if token.Wait() && token.Error() == nil {
				return
			}
		}
	}
}

func (s *Sender) Send(topicSuffix string, payload []byte) bool {
	if !s.IsConnected() {
		return false
	}
	token := s.client.Publish(topicFor(s.deviceID, topicSuffix), s.cfg.QoS, false, payload)
	if !token.WaitTimeout(time.Duration(s.cfg.PublishTimeoutSeconds) * time.Second) {
		s.obs.LogError("mqtt_publish_timeout", errPublishTimeout, ports.Field{Key: "topic", Value: topicSuffix})
		return false
	}
	if err := token.Error(); err != nil {
		s.obs.LogError("mqtt_publish_failed", err, ports.Field{Key: "topic", Value: topicSuffix})
		return false
	}
	return true
}

func (s *Sender) IsConnected() bool {
	return s.client.IsConnectionOpen()
}

// DeviceID returns the hardware-derived client identifier.
func (s *Sender) DeviceID() string {
	return s.deviceID
}

func (s *Sender) Close() {
	s.closeOnce.Do(func() { close(s.stopCh) })
	s.client.Disconnect(250)
}

func topicFor(deviceID, suffix string) string {
	return "devices/" + deviceID + "/" + suffix
}

// deviceID derives a stable identifier from the first hardware MAC so the
// same helmet always announces under the same topics.
func deviceID(prefix string) string {
	return prefix + "_" + hardwareID()
}

func hardwareID() string {
	ifaces, err := net.Interfaces()
	if err == nil {
		for _, iface := range ifaces {
			if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
				continue
			}
			return hex.EncodeToString(iface.HardwareAddr)
		}
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

var _ ports.Sender = (*Sender)(nil)
