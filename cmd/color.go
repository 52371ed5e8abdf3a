package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/smazurov/recsign/internal/overlay"
	"github.com/spf13/cobra"
)

type colorOutput struct {
	Standard string `json:"standard"`
	Range    string `json:"range"`
	Y        uint8  `json:"y"`
	U        uint8  `json:"u"`
	V        uint8  `json:"v"`
}

// CreateColorCmd creates the color command.
func CreateColorCmd(rt *Runtime) *cobra.Command {
	var standard, rng string
	var all, asJSON bool

	cmd := &cobra.Command{
		Use:   "color",
		Short: "Print the YUV value of the indicator color",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := rt.Settings
			if standard != "" {
				std, err := overlay.ParseStandard(standard)
				if err != nil {
					return err
				}
				settings.Standard = std
			}
			if rng != "" {
				r, err := overlay.ParseRange(rng)
				if err != nil {
					return err
				}
				settings.Range = r
			}

			choices := []overlay.Settings{settings}
			if all {
				choices = choices[:0]
				for _, std := range []overlay.Standard{overlay.BT601, overlay.BT709, overlay.FCC} {
					for _, r := range []overlay.Range{overlay.RangeStudio, overlay.RangeFull} {
						choices = append(choices, overlay.Settings{Standard: std, Range: r})
					}
				}
			}

			red := overlay.RecordingRed
			rows := make([]colorOutput, 0, len(choices))
			for _, c := range choices {
				yuv := overlay.RGBToYUV(red[0], red[1], red[2], c.Standard, c.Range)
				rows = append(rows, colorOutput{
					Standard: c.Standard.String(),
					Range:    c.Range.String(),
					Y:        yuv.Y,
					U:        yuv.U,
					V:        yuv.V,
				})
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			for _, row := range rows {
				fmt.Fprintf(out, "%-6s %-7s Y=%d U=%d V=%d\n", row.Standard, row.Range, row.Y, row.U, row.V)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&standard, "standard", "", "Color standard (bt601, bt709, fcc)")
	cmd.Flags().StringVar(&rng, "range", "", "Quantization range (studio, full)")
	cmd.Flags().BoolVar(&all, "all", false, "Print every standard and range")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
