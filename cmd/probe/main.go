package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Kvazar-213452/Voxta-mobile/internal/crypto"
	"github.com/Kvazar-213452/Voxta-mobile/shared/logger"
	"github.com/Kvazar-213452/Voxta-mobile/shared/wire"
	"github.com/spf13/cobra"
)

type probeFlags struct {
	url     string
	path    string
	token   string
	secret  string
	user    string
	ttl     time.Duration
	typ     string
	timeout time.Duration
	debug   bool
}

type statusLine struct {
	User  string           `json:"user"`
	Reply wire.StatusReply `json:"reply"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f probeFlags
	cmd := &cobra.Command{
		Use:   "probe [user-id...]",
		Short: "Authenticate against a presence server and query user status",
		Example: `  probe --url http://localhost:3003 --token $TOKEN alice bob
  probe --secret dev --user carol alice`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.debug {
				logger.SetLevel(logger.LevelDebug)
			}
			token, err := f.resolveToken()
			if err != nil {
				return err
			}
			return runProbe(cmd, f, token, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.url, "url", "http://localhost:3003", "presence server base URL")
	fs.StringVar(&f.path, "path", "/socket.io", "Socket.IO path")
	fs.StringVar(&f.token, "token", "", "bearer token to authenticate with")
	fs.StringVar(&f.secret, "secret", "", "mint a token with this signing secret instead of --token")
	fs.StringVar(&f.user, "user", "", "userId claim for a minted token")
	fs.DurationVar(&f.ttl, "ttl", time.Hour, "lifetime of a minted token")
	fs.StringVar(&f.typ, "type", "probe", "type value echoed back by get_status")
	fs.DurationVar(&f.timeout, "timeout", 10*time.Second, "how long to wait for each reply")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	cmd.MarkFlagsMutuallyExclusive("token", "secret")
	return cmd
}

func (f probeFlags) resolveToken() (string, error) {
	if f.token != "" {
		return f.token, nil
	}
	if f.secret == "" {
		return "", errors.New("one of --token or --secret is required")
	}
	if f.user == "" {
		return "", errors.New("--user is required with --secret")
	}
	jwtManager, err := crypto.NewJWTManager(f.secret)
	if err != nil {
		return "", err
	}
	return jwtManager.CreateToken(f.user, f.ttl)
}

func runProbe(cmd *cobra.Command, f probeFlags, token string, targets []string) error {
	ctx := cmd.Context()
	p, err := dialProber(f.url, f.path, f.timeout)
	if err != nil {
		return err
	}
	defer p.close()

	if err := p.waitConnected(ctx); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	reply, err := p.authenticate(ctx, token)
	if encErr := enc.Encode(reply); encErr != nil {
		return encErr
	}
	if err != nil {
		return err
	}

	for _, target := range targets {
		status, err := p.getStatus(ctx, target, f.typ)
		if err != nil {
			return err
		}
		if err := enc.Encode(statusLine{User: target, Reply: status}); err != nil {
			return err
		}
	}
	return nil
}
