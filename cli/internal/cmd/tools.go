package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.acuvity.ai/minimcp/pkgs/mcp"
	"go.acuvity.ai/minimcp/pkgs/scan"
	"go.acuvity.ai/minimcp/pkgs/tools"
)

var fTools = pflag.NewFlagSet("tools", pflag.ExitOnError)

func init() {

	initSharedFlagSet()

	fTools.Bool("hashes", false, "prints the hashes of the tools instead of their listing. The output can be used as a sbom file.")

	Tools.Flags().AddFlagSet(fTools)
}

// Tools is the cobra command to print the builtin tools.
var Tools = &cobra.Command{
	Use:              "tools",
	Short:            "Print the builtin tools",
	SilenceUsage:     true,
	SilenceErrors:    true,
	TraverseChildren: true,

	RunE: func(cmd *cobra.Command, args []string) error {

		list := tools.Builtin().MCPTools()

		if !viper.GetBool("hashes") {
			return printJSON(mcp.ListToolsResult{Tools: list})
		}

		hashes, err := scan.HashTools(list)
		if err != nil {
			return fmt.Errorf("unable to hash tools: %w", err)
		}

		slog.Debug("Tools hashed", "tools", len(hashes))

		return printJSON(scan.SBOM{Tools: hashes})
	},
}
