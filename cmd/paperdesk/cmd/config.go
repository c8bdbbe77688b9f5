package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/paperdesk/config"
)

var writePath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print or write the default configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()

		if writePath != "" {
			if err := cfg.SaveToFile(writePath); err != nil {
				return err
			}
			fmt.Printf("wrote default config to %s\n", writePath)
			return nil
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	configCmd.Flags().StringVarP(&writePath, "write", "w", "", "write default config to file instead of stdout")
	rootCmd.AddCommand(configCmd)
}
