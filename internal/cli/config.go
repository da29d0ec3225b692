package cli

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/uniyakcom/gist/codec"
	"github.com/uniyakcom/gist/config"
	"github.com/uniyakcom/gist/engine"
)

// ErrInvalidProps --props 不是 JSON 对象
var ErrInvalidProps = eris.New("props must be a JSON object")

func decodeProps(c *codec.Codec, raw string) (map[string]any, error) {
	props, ok := codec.FromJSONString[map[string]any](c, raw)
	if !ok || props == nil {
		return nil, ErrInvalidProps
	}
	return props, nil
}

func newConfigCmd() *cobra.Command {
	var (
		siteID      string
		environment string
		props       string
	)
	cmd := &cobra.Command{
		Use:   "config [message-id]",
		Short: "Print the engine configuration resolved from GIST_* environment variables",
		Example: `GIST_SITE_ID=abc gistctl config welcome
gistctl config welcome --site-id abc --env development`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if siteID != "" {
				cfg.SiteID = siteID
			}
			if environment != "" {
				cfg.Environment = environment
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			c := newCodec(cmd)
			ec := engine.Configuration{
				SiteID:     cfg.SiteID,
				DataCenter: cfg.DataCenter,
				InstanceID: uuid.NewString(),
				Endpoint:   cfg.Endpoint(),
				MessageID:  args[0],
			}
			if props != "" {
				if ec.Properties, err = decodeProps(c, props); err != nil {
					return err
				}
			}
			return printJSON(cmd, c, ec)
		},
	}
	cmd.Flags().StringVar(&siteID, "site-id", "", "override GIST_SITE_ID")
	cmd.Flags().StringVar(&environment, "env", "", "override GIST_ENVIRONMENT (production|development|local)")
	cmd.Flags().StringVar(&props, "props", "", "message properties as a JSON object")
	return cmd
}
