package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrylevesque/boardroom/internal/files"
)

var (
	out   string
	force bool
)

var rootCmd = &cobra.Command{
	Use:          "genmasterkey",
	Short:        "Write a new random master key for sealed workspaces",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := files.WriteMasterKey(out, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Master key written to %s\n", out)
		return nil
	},
}

func main() {
	rootCmd.Flags().StringVarP(&out, "out", "o", files.MasterKeyFile, "key file to write")
	rootCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing key file")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
