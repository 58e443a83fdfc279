// cmd/oracle/root.go
package main

import (
	"github.com/jason-s-yu/oracle/internal/config"
	"github.com/jason-s-yu/oracle/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cli holds state shared by the subcommands.
type cli struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "oracle",
		Short: "Tarot and fortune-telling API server",
		Long: `Oracle serves tarot readings and oracle chats interpreted by a language model.
Anonymous visitors get a trial; signed-in users keep a history they can ask follow-up questions about.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "optional YAML config file; environment variables override it")

	root.AddCommand(
		c.serveCmd(),
		c.migrateCmd(),
		c.seedCmd(),
		validateDeckCmd(),
		drawCmd(),
	)
	return root
}

func (c *cli) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cfg.LogLevel, cfg.IsDev()), nil
}
