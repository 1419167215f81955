package app

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oidcd/oidcd/internal/logger"
	"github.com/oidcd/oidcd/internal/promptstore"
)

// NewRootCmd creates the oidc-prompt root command. oidcd execs this
// binary and talks to it over stdin/stdout using the Frontend Channel
// framing; --backend picks which promptstore.Provider answers requests.
func NewRootCmd() *cobra.Command {
	var backend string
	var autoConfirm bool

	rootCmd := &cobra.Command{
		Use:               "oidc-prompt",
		DisableAutoGenTag: true,
		Short:             "Client Frontend for oidcd: answers autoload, confirm, and credential prompts",
		PersistentPreRun: func(*cobra.Command, []string) {
			logger.Initialize()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			provider, err := promptstore.NewProvider(promptstore.ProviderType(backend))
			if err != nil {
				return err
			}
			loop := &Loop{Provider: provider, AutoConfirm: autoConfirm}
			return loop.Run(cmd.Context(), os.Stdin, os.Stdout)
		},
	}

	rootCmd.PersistentFlags().StringVar(&backend, "backend", string(promptstore.ProviderEnvironment),
		"account config backend: keyring, 1password, or environment")
	rootCmd.PersistentFlags().BoolVar(&autoConfirm, "auto-confirm", false,
		"answer every confirmation prompt with accept instead of deny")

	if err := viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend")); err != nil {
		logger.Errorf("error binding backend flag: %v", err)
	}

	rootCmd.SilenceUsage = true
	return rootCmd
}
