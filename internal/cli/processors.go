package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cuetest/internal/processors"
)

// ProcessorInfo describes a builtin processor.
type ProcessorInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NewProcessorsCommand creates the processors command.
func NewProcessorsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "processors",
		Short:         "List builtin processors",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			infos := make([]ProcessorInfo, 0, len(processors.Names()))
			for _, name := range processors.Names() {
				infos = append(infos, ProcessorInfo{Name: name, Description: processors.Describe(name)})
			}

			if formatter.JSON() {
				return formatter.Success(infos)
			}
			outputProcessorsText(formatter, infos)
			return nil
		},
	}
}

// outputProcessorsText prints one processor per line with the names
// padded to a common width and colored.
func outputProcessorsText(formatter *OutputFormatter, infos []ProcessorInfo) {
	width := 0
	for _, info := range infos {
		width = max(width, len(info.Name))
	}
	for _, info := range infos {
		pad := strings.Repeat(" ", width-len(info.Name)+2)
		fmt.Fprintf(formatter.Writer, "%s%s%s\n", passColor.Sprint(info.Name), pad, info.Description)
	}
}
