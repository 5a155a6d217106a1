package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/osvaldoandrade/soapgate/internal/services"
	"github.com/osvaldoandrade/soapgate/pkg/domain"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// batchFile is the YAML document read by `soapctl batch`. Defaults apply to
// every call that leaves the field empty.
type batchFile struct {
	Defaults struct {
		Struct domain.StructDescriptor `yaml:"struct"`
		Expect []any                   `yaml:"expect"`
	} `yaml:"defaults"`
	Calls []services.InvokeRequest `yaml:"calls"`
}

func parseBatch(data []byte) ([]services.InvokeRequest, error) {
	var f batchFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}
	if len(f.Calls) == 0 {
		return nil, errors.New("batch has no calls")
	}
	out := make([]services.InvokeRequest, 0, len(f.Calls))
	for i, c := range f.Calls {
		if c.Struct.Container == "" && c.Struct.Status == "" && c.Struct.Message == "" {
			c.Struct = f.Defaults.Struct
		}
		if len(c.Expect) == 0 {
			c.Expect = f.Defaults.Expect
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("call %d (%s): %w", i+1, c.Method, err)
		}
		out = append(out, c)
	}
	return out, nil
}

type batchSummary struct {
	Succeeded int
	Failed    int
	Escalated int
}

func batchCmd(g *globals, ui *ui) *cobra.Command {
	var stopOnError bool
	cmd := &cobra.Command{
		Use:   "batch <file.yaml>",
		Short: "Run a list of calls from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			reqs, err := parseBatch(data)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			s, err := connect(ctx, g, ui)
			if err != nil {
				return err
			}
			defer s.close()

			bar := progressbar.NewOptions(len(reqs),
				progressbar.OptionSetDescription("Calling"),
				progressbar.OptionSetWidth(18),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
				progressbar.OptionSetWriter(os.Stderr),
			)

			var sum batchSummary
			var lines []string
			// Calls run one at a time: the handler keeps a single last response.
			for _, req := range reqs {
				if ctx.Err() != nil {
					break
				}
				bar.Describe(req.Method)
				rec, callErr := s.calls.Invoke(ctx, req)
				_ = bar.Add(1)

				switch {
				case callErr != nil:
					sum.Escalated++
					lines = append(lines, fmt.Sprintf("%s %s %v", ui.err("[ERR]"), req.Method, callErr))
				case rec.Result.Succeeded:
					sum.Succeeded++
					lines = append(lines, fmt.Sprintf("%s %s %s", ui.ok("[OK]"), req.Method, rec.Result.Message))
				default:
					sum.Failed++
					lines = append(lines, fmt.Sprintf("%s %s %s", ui.warn("[FAIL]"), req.Method, rec.Result.Message))
				}
				if callErr != nil && stopOnError {
					break
				}
			}
			_ = bar.Finish()

			for _, l := range lines {
				fmt.Println(l)
			}
			fmt.Printf("%s %d succeeded, %d failed, %d errors\n", ui.info("[INFO]"), sum.Succeeded, sum.Failed, sum.Escalated)
			if sum.Escalated > 0 {
				return fmt.Errorf("%d of %d calls returned errors", sum.Escalated, len(reqs))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "Stop at the first escalated error")
	return cmd
}
