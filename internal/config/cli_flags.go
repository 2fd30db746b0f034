package config

import "github.com/spf13/cobra"

// RegisterFlags registers the global CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Emit logs as JSON")
	cmd.PersistentFlags().String("proxy", "", "Set HTTP/SOCKS5 proxy for the browser (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("timeout", DefaultNavigationTimeout.String(), "Per-page navigation timeout")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().String("chrome-path", "", "Path to the Chrome/Chromium executable")
	cmd.PersistentFlags().Bool("headful", false, "Show the browser window")
	cmd.PersistentFlags().String("config", "", "Path to a YAML configuration file (optional)")
}
