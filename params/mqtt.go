package params

import "time"

type MQTTDaemonConfig struct {
	// Broker is the broker URL, eg. tcp://localhost:1883.
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// TopicPrefix roots every topic the bridge subscribes and publishes.
	//   <prefix>/raw/<device>      raw fixes in
	//   <prefix>/reset/<device>    reset requests in
	//   <prefix>/smoothed/<device> smoothed fixes out
	TopicPrefix string `mapstructure:"topic_prefix"`

	QoS            byte          `mapstructure:"qos"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

func DefaultMQTTDaemonConfig() *MQTTDaemonConfig {
	return &MQTTDaemonConfig{
		Broker:         "tcp://localhost:1883",
		ClientID:       "fixd",
		TopicPrefix:    "fixd",
		QoS:            1,
		ConnectTimeout: 10 * time.Second,
	}
}
