/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"log"
	"log/slog"

	"github.com/rotblauer/fixd/daemon/mqttd"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// mqttdCmd represents the mqttd command
var mqttdCmd = &cobra.Command{
	Use:   "mqttd",
	Short: "Bridge MQTT topics to location filters",
	Long: `Subscribes to raw fixes and reset requests, and publishes smoothed fixes (retained).

  <prefix>/raw/<device>       raw fixes in, any format smooth accepts
  <prefix>/reset/<device>     any message forces re-acquisition
  <prefix>/smoothed/<device>  smoothed fix JSON out

The broker password is read from $FIXD_MQTT_PASSWORD.
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		ctx, cancel := interruptContext()
		defer cancel()

		sessions, err := sessionConfig()
		if err != nil {
			log.Fatalln(err)
		}
		mqttConfig := params.DefaultMQTTDaemonConfig()
		if err := viper.UnmarshalKey("mqtt", mqttConfig); err != nil {
			log.Fatalln(err)
		}

		slog.Info("mqttd.Run", "broker", mqttConfig.Broker, "prefix", mqttConfig.TopicPrefix)
		bridge := mqttd.NewBridge(mqttConfig, session.NewRegistry(sessions))
		bridge.Dedupe = session.NewDedupeFunc(sessions.DedupeCacheSize)
		if err := bridge.Run(ctx); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(mqttdCmd)

	defaults := params.DefaultMQTTDaemonConfig()
	pFlags := mqttdCmd.PersistentFlags()
	pFlags.String("broker", defaults.Broker, "MQTT broker URL")
	pFlags.String("client-id", defaults.ClientID, "MQTT client ID")
	pFlags.String("username", defaults.Username, "MQTT username")
	pFlags.String("prefix", defaults.TopicPrefix, "Topic prefix")
	pFlags.Uint8("qos", defaults.QoS, "QoS for subscriptions and publications")
	pFlags.Duration("connect-timeout", defaults.ConnectTimeout, "Broker connect timeout")
	bindFlag("mqtt.broker", pFlags, "broker")
	bindFlag("mqtt.client_id", pFlags, "client-id")
	bindFlag("mqtt.username", pFlags, "username")
	bindFlag("mqtt.topic_prefix", pFlags, "prefix")
	bindFlag("mqtt.qos", pFlags, "qos")
	bindFlag("mqtt.connect_timeout", pFlags, "connect-timeout")
}
