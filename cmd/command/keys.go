package command

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"turnline/queue-gateway/internal/config"
)

type KeysCommand struct{}

func (cmd KeysCommand) Command(_ context.Context, _ *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "generate COOKIE_HASH_KEY and COOKIE_BLOCK_KEY values (base64)",
		RunE: func(c *cobra.Command, _ []string) error {
			hash := securecookie.GenerateRandomKey(32)
			block := securecookie.GenerateRandomKey(32)
			if hash == nil || block == nil {
				return errors.New("keys : system random source failed")
			}

			fmt.Fprintf(c.OutOrStdout(), "export COOKIE_HASH_KEY=%s\n", base64.StdEncoding.EncodeToString(hash))
			fmt.Fprintf(c.OutOrStdout(), "export COOKIE_BLOCK_KEY=%s\n", base64.StdEncoding.EncodeToString(block))
			return nil
		},
	}
}
