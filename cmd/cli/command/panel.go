package command

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"canpi-panel/internal/panel"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Panel definition tools",
	Long:  `Commands to inspect panel definition files and build the panel menu.`,
}

var panelSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of a panel definition",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := panel.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(schema))
		return err
	},
}

var panelValidateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Validate every *.json panel definition in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateDir(args[0], cmd.OutOrStdout())
	},
}

var panelMenuCmd = &cobra.Command{
	Use:   "menu <dir> <format-file>",
	Short: "Build the top menu html from the panels in a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		panels, err := panel.Load(args[0])
		if err != nil && !errors.Is(err, panel.ErrNoPanels) {
			return err
		}
		if err := panel.BuildTopMenu(panels, args[1]); err != nil {
			return err
		}
		okColor.Fprintf(cmd.OutOrStdout(), "wrote %s (%d panels)\n", panel.MenuFileName(args[1]), len(panels))
		return nil
	},
}

func validateDir(dir string, out io.Writer) error {
	files, err := panel.FindDefinitions(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no panel definitions in %s", dir)
	}

	failed := 0
	for _, f := range files {
		def, err := panel.ReadDefinition(f)
		if err != nil {
			failed++
			failColor.Fprintf(out, "FAIL %s: %v\n", filepath.Base(f), err)
			continue
		}
		okColor.Fprintf(out, "ok   %s (%s)\n", filepath.Base(f), def.Title)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d panel definitions invalid", failed, len(files))
	}
	return nil
}

func init() {
	panelCmd.AddCommand(panelSchemaCmd, panelValidateCmd, panelMenuCmd)
	rootCmd.AddCommand(panelCmd)
}
