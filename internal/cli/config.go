package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/riseai/rise-chat/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or save client configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("marshalling config: %w", err)
			}
			fmt.Fprint(a.out, string(data))
			a.println("# state_dir: " + a.cfg.StateDir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Write the effective configuration to config.yaml in the state directory",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := config.WriteClientFile(a.cfg); err != nil {
				return err
			}
			a.println("Saved " + filepath.Join(a.cfg.StateDir, "config.yaml"))
			return nil
		},
	})

	return cmd
}
