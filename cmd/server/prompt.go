package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"desk-agent/internal/model"
	servicellm "desk-agent/internal/service/llm"
)

func newPromptCmd() *cobra.Command {
	var (
		text         string
		activeWindow string
		windows      []string
	)
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt that would be sent to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := model.ActionRequest{
				Utterance: text,
				Context:   model.WindowContext{AllWindows: windows},
			}
			if activeWindow != "" {
				req.Context.ActiveWindow = &activeWindow
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), servicellm.BuildPrompt(req))
			return err
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "user command")
	cmd.Flags().StringVar(&activeWindow, "active-window", "", "title of the focused window")
	cmd.Flags().StringArrayVar(&windows, "window", nil, "title of an open window (repeatable)")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
