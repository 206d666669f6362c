package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ezgen",
	Short: "White-label mobile app generator",
	Long:  "ezgen wraps a customer website in an Ionic/Capacitor shell and drives the Android toolchain to produce installable APK/AAB artifacts.",
}

func main() {
	rootCmd.AddCommand(serveCmd, doctorCmd, buildsCmd)
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
