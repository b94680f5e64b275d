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

	"github.com/rotblauer/fixd/daemon/webd"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// webdCmd represents the serve command
var webdCmd = &cobra.Command{
	Use:   "webd",
	Short: "Start the webserver",
	Long: `Serves location filter sessions over HTTP.

  POST /devices/{device}/fixes   raw fixes in, NDJSON smoothed fixes out
  POST /devices/{device}/reset   force re-acquisition
  GET  /devices/{device}/last    last smoothed fix
  GET  /last                     last smoothed fix of every device
  GET  /socket                   websocket of smoothed fixes as they happen

Mutating routes require the token in $FIXD_TOKEN, if set.
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		ctx, cancel := interruptContext()
		defer cancel()

		sessions, err := sessionConfig()
		if err != nil {
			log.Fatalln(err)
		}
		config := params.DefaultWebDaemonConfig()
		config.ListenerConfig = params.ListenerConfig{
			Address: viper.GetString("web.address"),
			Network: viper.GetString("web.network"),
		}
		slog.Info("webd.Run")
		server := webd.NewWebDaemon(config, session.NewRegistry(sessions))
		if err := server.Run(ctx); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(webdCmd)

	defaults := params.DefaultWebDaemonConfig()
	pFlags := webdCmd.PersistentFlags()
	pFlags.String("address", defaults.Address, "HTTP address to listen on")
	pFlags.String("network", defaults.Network, "Network to listen on (tcp, tcp4, tcp6, unix)")
	bindFlag("web.address", pFlags, "address")
	bindFlag("web.network", pFlags, "network")
}
