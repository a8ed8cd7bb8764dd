package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"desk-agent/internal/model"
	"desk-agent/internal/service"
	servicellm "desk-agent/internal/service/llm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newMediateCmd 离线调试：把一段模型原始回复走一遍 清洗 -> 解析 -> 兜底，不调用模型
func newMediateCmd() *cobra.Command {
	var (
		parser  servicellm.Parser
		apology string
	)
	cmd := &cobra.Command{
		Use:   "mediate [file|-]",
		Short: "Mediate a raw model reply into an action batch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			res, err := parser.Parse(servicellm.Sanitize(string(raw)))
			batch := res.Batch
			if err != nil {
				var f *model.Failure
				if errors.As(err, &f) {
					fmt.Fprintf(cmd.ErrOrStderr(), "fallback: %s\n", f.Kind)
				}
				batch = service.NewFallbackPolicy(apology, "").Recover(err)
			}
			for _, d := range res.Dropped {
				fmt.Fprintf(cmd.ErrOrStderr(), "dropped: %s\n", d.Error())
			}
			out, err := json.MarshalIndent(batch, "", "  ")
			if err != nil {
				return fmt.Errorf("encode batch: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().BoolVar(&parser.Strict, "strict", false, "reject the whole batch when any action is invalid")
	cmd.Flags().IntVar(&parser.MaxActions, "max-actions", 0, "keep at most this many actions (0 = unlimited)")
	cmd.Flags().StringVar(&apology, "apology", "", "apology text used when nothing is executable")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	return data, nil
}
