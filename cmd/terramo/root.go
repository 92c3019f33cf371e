package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terramo-esg/terramo/internal/config"
	"github.com/terramo-esg/terramo/internal/gateway"
	"github.com/terramo-esg/terramo/internal/logging"
	"github.com/terramo-esg/terramo/internal/session"
	"github.com/terramo-esg/terramo/internal/utils"
)

const snapshotTTL = 24 * time.Hour

type options struct {
	configPath string
	apiURL     string
	token      string
}

// app is what every subcommand works with once flags are parsed.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	session *session.Session
	client  *gateway.Client
	in      io.Reader
	out     io.Writer
}

func (a *app) close() {
	if a == nil {
		return
	}
	if a.client != nil {
		if err := a.client.Gateway().Close(); err != nil {
			a.logger.Warn("close snapshot store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{}
	var a *app

	root := &cobra.Command{
		Use:           "terramo",
		Short:         "Terramo ESG questionnaire client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = newApp(opts, in, out)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().StringVar(&opts.configPath, "config", utils.SafeEnv("TERRAMO_CONFIG", ""), "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "API base URL (overrides config)")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "bearer token (overrides the stored token)")

	current := func() *app { return a }
	root.AddCommand(
		newQuestionsCmd(current),
		newDashboardCmd(current),
		newEditCmd(current),
		newGroupsCmd(current),
		newLoginCmd(current),
		newInviteCmd(current),
	)
	return root
}

func newApp(opts *options, in io.Reader, out io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	token := opts.token
	if token == "" {
		token = cfg.API.Token
	}
	if token == "" {
		token = readStoredToken(logger)
	}
	sess, err := session.New(token)
	if err != nil {
		return nil, fmt.Errorf("stored token: %w", err)
	}
	if sess.Expired(time.Now()) {
		logger.Warn("session token has expired, run terramo login")
	}

	store, err := newSnapshotStore(cfg)
	if err != nil {
		return nil, err
	}
	transport := gateway.NewHTTPTransport(cfg.API.BaseURL, cfg.API.Timeout, sess, cfg.Locale, logger)
	gw := gateway.New(transport, store, logger)
	return &app{
		cfg:     cfg,
		logger:  logger,
		session: sess,
		client:  gateway.NewClient(gw),
		in:      in,
		out:     out,
	}, nil
}

func newSnapshotStore(cfg config.Config) (gateway.SnapshotStore, error) {
	if cfg.Cache.Backend != config.CacheRedis {
		return gateway.NewMemoryStore(), nil
	}
	store, err := gateway.NewRedisStore(cfg.Cache.RedisURL, snapshotTTL)
	if err != nil {
		return nil, fmt.Errorf("redis snapshot store: %w", err)
	}
	return store, nil
}

// tokenPath is where login stores the bearer token.
func tokenPath() (string, error) {
	if p := utils.SafeEnv("TERRAMO_TOKEN_FILE", ""); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "terramo", "token"), nil
}

func readStoredToken(logger *zap.Logger) string {
	path, err := tokenPath()
	if err != nil {
		return ""
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("read stored token", zap.String("path", path), zap.Error(err))
		}
		return ""
	}
	return strings.TrimSpace(string(b))
}

func writeStoredToken(token string) (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}
	return path, os.WriteFile(path, []byte(token+"\n"), 0o600)
}

// currentYear is the default reporting year.
func currentYear() int { return time.Now().Year() }
