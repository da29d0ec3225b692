// Package cli gistctl 子命令
package cli

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/uniyakcom/gist/codec"
)

// NewRootCmd 创建根命令
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "gistctl",
		Short:        "In-app message debugging tool",
		SilenceUsage: true,
	}
	root.AddCommand(
		newActionCmd(),
		newShowCmd(),
		newLoadPageCmd(),
		newConfigCmd(),
	)
	return root
}

// newCodec 编码失败写入 stderr
func newCodec(cmd *cobra.Command) *codec.Codec {
	return codec.New(zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger())
}

func printJSON(cmd *cobra.Command, c *codec.Codec, v any) error {
	s, ok := c.ToJSONString(v, false)
	if !ok {
		return eris.Errorf("unable to encode %T", v)
	}
	return writeLine(cmd.OutOrStdout(), s)
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
