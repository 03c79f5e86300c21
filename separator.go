package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tabformat/config"
)

var separatorCmd = &cobra.Command{
	Use:   "separator [value]",
	Short: "Show or set the stored separator preference",
	Long: `Without arguments, print the stored separator. With a value, store it
for later fmt runs and editor sessions. A single space means "align on runs of
whitespace".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSeparator,
}

func init() {
	separatorCmd.Flags().Bool("clear", false, "remove the stored separator")
}

func runSeparator(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	store := config.NewStore(configPath)
	out := cmd.OutOrStdout()

	clearPref, err := cmd.Flags().GetBool("clear")
	if err != nil {
		return err
	}
	if clearPref && len(args) > 0 {
		return fmt.Errorf("separator: --clear takes no value")
	}

	switch {
	case clearPref:
		if err := store.SetSeparator(""); err != nil {
			return err
		}
		fmt.Fprintln(out, "separator cleared")
	case len(args) == 1:
		if err := store.SetSeparator(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "separator set to %s\n", color.CyanString("%q", args[0]))
	default:
		sep, ok := store.Separator()
		if !ok {
			fmt.Fprintln(out, color.New(color.Faint).Sprint("no separator stored"))
			return nil
		}
		fmt.Fprintf(out, "%q\n", sep)
	}
	return nil
}
