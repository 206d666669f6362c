package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EZ-CORE/EZ-GEN/internal/android"
	"github.com/EZ-CORE/EZ-GEN/internal/config"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the build toolchain",
	Long:  "Probes the Android SDK, Java, and the Node toolchain the way the pipeline's pre-flight guard does, and prints remediation hints for anything missing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		rep := android.CheckEnvironment(config.Current.AndroidHome, config.Current.JavaHome)
		printCheck("Android SDK", rep.SDK)
		printCheck("Java", rep.Java)
		printCheck("Node.js", rep.Node)
		printCheck("npm", rep.NPM)

		switch {
		case rep.BuildReady() && rep.WebReady():
			fmt.Println("\nAll checks passed. Release builds will work.")
		case rep.WebReady():
			fmt.Println("\nWeb stages will work, but release builds will be skipped until the native toolchain is fixed.")
		default:
			fmt.Println("\nGeneration will degrade early; fix the toolchain above first.")
		}
		return nil
	},
}

func printCheck(name string, c android.Check) {
	if c.OK {
		fmt.Printf("  [ok] %-12s %s\n", name, c.Path)
		return
	}
	fmt.Printf("  [--] %-12s missing: %s\n", name, c.Hint)
}
