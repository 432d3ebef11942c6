package cmd

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dvc-matrix/dvc-matrix/internal/matrix"
)

var gridCmd = &cobra.Command{
	Use:     "grid --<name>=<v1>,<v2> ...",
	GroupID: GroupPipeline,
	Short:   "Print the cross product of parameter lists as YAML",
	Long: `Print the named cross product of ad-hoc parameter lists as a YAML list,
ready to paste into a foreach section.

Examples:
  dvc-matrix grid --size=1,2 --lr=0.1,0.01`,
	DisableFlagParsing: true,
	RunE:               runGrid,
}

func init() {
	rootCmd.AddCommand(gridCmd)
}

func runGrid(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return cmd.Help()
		}
	}
	if len(args) == 0 {
		return nil
	}

	params, err := matrix.ParseGridArgs(args)
	if err != nil {
		return err
	}
	return writeGrid(cmd.OutOrStdout(), matrix.Expand(params))
}

// writeGrid encodes combos as a block-style YAML sequence of mappings.
// Values are always strings, so numeric-looking values are quoted.
func writeGrid(w io.Writer, combos []matrix.Combination) error {
	list := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	if len(combos) == 0 {
		list.Style = yaml.FlowStyle
	}
	for _, combo := range combos {
		item := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, b := range combo {
			item.Content = append(item.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: b.Name},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: b.Value},
			)
		}
		list.Content = append(list.Content, item)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(list); err != nil {
		return err
	}
	return enc.Close()
}
