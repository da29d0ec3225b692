package cli

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/uniyakcom/gist/manager"
)

// ErrInvalidAction 动作不是合法 URI
var ErrInvalidAction = eris.New("action is not a valid uri")

type actionView struct {
	Kind       string         `json:"kind"`
	URL        string         `json:"url,omitempty"`
	MessageID  string         `json:"messageId,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

func newActionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "action [action-url]",
		Short:   "Parse a tap action and print it as JSON",
		Example: `gistctl action 'gist://showMessage?messageId=welcome'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			act, ok := manager.ParseAction(args[0])
			if !ok {
				return eris.Wrapf(ErrInvalidAction, "%q", args[0])
			}
			view := actionView{
				Kind:       act.Kind.String(),
				MessageID:  act.MessageID,
				Properties: act.Properties,
			}
			if act.URL != nil {
				view.URL = act.URL.String()
			}
			return printJSON(cmd, newCodec(cmd), view)
		},
	}
}

func newShowCmd() *cobra.Command {
	var props string
	cmd := &cobra.Command{
		Use:     "show [message-id]",
		Short:   "Build a showMessage action",
		Example: `gistctl show welcome --props '{"name":"Ada"}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newCodec(cmd)
			var properties map[string]any
			if props != "" {
				var err error
				if properties, err = decodeProps(c, props); err != nil {
					return err
				}
			}
			return writeLine(cmd.OutOrStdout(), manager.ShowMessageAction(c, args[0], properties))
		},
	}
	cmd.Flags().StringVar(&props, "props", "", "message properties as a JSON object")
	return cmd
}

func newLoadPageCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "load-page [url]",
		Short:   "Build a loadPage action",
		Example: `gistctl load-page 'https://example.com/docs#intro'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeLine(cmd.OutOrStdout(), manager.LoadPageAction(args[0]))
		},
	}
}
