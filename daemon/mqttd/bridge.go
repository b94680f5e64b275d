// Package mqttd bridges MQTT topics to filter sessions: raw fixes in,
// smoothed fixes out.
package mqttd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rotblauer/fixd/conceptual"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/session"
	"github.com/rotblauer/fixd/types/fix"
)

var ErrConnectTimeout = errors.New("mqtt connect timed out")

const (
	kindRaw      = "raw"
	kindReset    = "reset"
	kindSmoothed = "smoothed"
)

func RawTopicFilter(prefix string) string   { return prefix + "/" + kindRaw + "/+" }
func ResetTopicFilter(prefix string) string { return prefix + "/" + kindReset + "/+" }

func SmoothedTopic(prefix string, device conceptual.DeviceID) string {
	return prefix + "/" + kindSmoothed + "/" + device.String()
}

// ParseTopic splits <prefix>/<kind>/<device>.
func ParseTopic(prefix, topic string) (kind string, device conceptual.DeviceID, ok bool) {
	rest, found := strings.CutPrefix(topic, prefix+"/")
	if !found {
		return "", "", false
	}
	kind, name, found := strings.Cut(rest, "/")
	if !found || strings.Contains(name, "/") {
		return "", "", false
	}
	device = conceptual.SanitizeDeviceID(name)
	if device.Empty() {
		return "", "", false
	}
	return kind, device, true
}

type publication struct {
	Topic   string
	Payload []byte
}

type Bridge struct {
	config   *params.MQTTDaemonConfig
	logger   *slog.Logger
	registry *session.Registry

	// Dedupe, if set, drops redelivered fixes.
	Dedupe func(conceptual.DeviceID, fix.RawFix) bool

	// mu serializes decoding; NMEA assembly is stateful.
	mu       sync.Mutex
	decoders *session.DeviceState[*fix.Decoder]
}

func NewBridge(config *params.MQTTDaemonConfig, registry *session.Registry) *Bridge {
	if config == nil {
		config = params.DefaultMQTTDaemonConfig()
	}
	if registry == nil {
		registry = session.NewRegistry(nil)
	}
	b := &Bridge{
		config:   config,
		logger:   slog.With("d", "mqtt"),
		registry: registry,
		decoders: session.NewDeviceState(registry.Config(), func(conceptual.DeviceID) *fix.Decoder {
			return fix.NewDecoder()
		}),
	}
	registry.OnSessionEnd(b.decoders.Remove)
	return b
}

// decoder returns the device's decoder; NMEA sentences are assembled per device.
func (b *Bridge) decoder(device conceptual.DeviceID) *fix.Decoder {
	return b.decoders.Get(device)
}

// handle applies one message and returns what should be published for it.
func (b *Bridge) handle(topic string, payload []byte) ([]publication, error) {
	kind, device, ok := ParseTopic(b.config.TopicPrefix, topic)
	if !ok {
		return nil, fmt.Errorf("unexpected topic %q", topic)
	}
	switch kind {
	case kindReset:
		b.registry.Reset(device)
		return nil, nil
	case kindRaw:
	default:
		return nil, fmt.Errorf("unexpected topic kind %q", kind)
	}

	var pubs []publication
	d := b.decoder(device)
	b.mu.Lock()
	defer b.mu.Unlock()
	err := d.Scan(bytes.NewReader(payload), func(raw fix.RawFix) error {
		if b.Dedupe != nil && !b.Dedupe(device, raw) {
			return nil
		}
		out, err := b.registry.Update(device, raw)
		if err != nil {
			return err
		}
		if out.Status == fix.StatusInvalid {
			return nil
		}
		j, err := json.Marshal(out)
		if err != nil {
			return err
		}
		pubs = append(pubs, publication{Topic: SmoothedTopic(b.config.TopicPrefix, device), Payload: j})
		return nil
	})
	return pubs, err
}

func (b *Bridge) onMessage(client mqtt.Client, msg mqtt.Message) {
	pubs, err := b.handle(msg.Topic(), msg.Payload())
	if err != nil {
		b.logger.Warn("Failed to handle message", "topic", msg.Topic(), "error", err)
	}
	for _, p := range pubs {
		token := client.Publish(p.Topic, b.config.QoS, true, p.Payload)
		go func(topic string) {
			if token.Wait() && token.Error() != nil {
				b.logger.Warn("Failed to publish", "topic", topic, "error", token.Error())
			}
		}(p.Topic)
	}
}

func (b *Bridge) subscribe(client mqtt.Client) {
	filters := map[string]byte{
		RawTopicFilter(b.config.TopicPrefix):   b.config.QoS,
		ResetTopicFilter(b.config.TopicPrefix): b.config.QoS,
	}
	token := client.SubscribeMultiple(filters, b.onMessage)
	if token.Wait() && token.Error() != nil {
		b.logger.Error("Failed to subscribe", "error", token.Error())
		return
	}
	b.logger.Info("Subscribed", "prefix", b.config.TopicPrefix)
}

// Run connects to the broker and bridges until ctx is canceled.
// Subscriptions are renewed on every reconnect.
func (b *Bridge) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(b.config.Broker).
		SetClientID(b.config.ClientID).
		SetAutoReconnect(true).
		SetOrderMatters(true).
		SetOnConnectHandler(b.subscribe).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			b.logger.Warn("MQTT connection lost", "error", err)
		})
	if b.config.Username != "" {
		opts.SetUsername(b.config.Username)
		opts.SetPassword(b.config.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(b.config.ConnectTimeout) {
		return fmt.Errorf("%w: %s", ErrConnectTimeout, b.config.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", b.config.Broker, err)
	}
	defer client.Disconnect(250)
	b.logger.Info("MQTT bridge connected", "broker", b.config.Broker)

	go b.registry.Start()
	defer b.registry.Stop()

	<-ctx.Done()
	b.logger.Info("Stopping MQTT bridge")
	return nil
}
