package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	addr  string
	token string
)

var rootCmd = &cobra.Command{
	Use:   "breakoutctl",
	Short: "Control and inspect a running breakout bot",
	Long: `breakoutctl talks to the bot control surface (status, kill, pause, resume)
and reads the trade journal straight from the configured store (trades, equity).`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	def := os.Getenv("BOT_ADDR")
	if def == "" {
		def = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&addr, "addr", def, "bot HTTP address")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("ADMIN_TOKEN"), "admin token")

	rootCmd.AddCommand(
		newStatusCmd(),
		newAdminCmd("kill", "Drop all in-memory positions (venue positions stay open)"),
		newAdminCmd("pause", "Pause new entries"),
		newAdminCmd("resume", "Resume new entries"),
		newTradesCmd(),
		newEquityCmd(),
		newConfigCmd(),
	)
}
