package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/osvaldoandrade/soapgate/internal/logging"
	"github.com/osvaldoandrade/soapgate/internal/repository"
	"github.com/osvaldoandrade/soapgate/internal/services"
	"github.com/osvaldoandrade/soapgate/pkg/config"
	"github.com/osvaldoandrade/soapgate/pkg/domain"
	"github.com/osvaldoandrade/soapgate/pkg/handler"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

type globals struct {
	configPath  string
	baseURL     string
	endpoint    string
	debug       bool
	throw       bool
	login       string
	askPassword bool
	verbose     bool
}

// session is one connected handler plus the call service on top of it.
type session struct {
	cfg     *config.Config
	handler *handler.Handler
	calls   services.CallService
	logger  *slog.Logger
	close   func() error
}

func main() {
	g := &globals{configPath: getenv("SOAPCTL_CONFIG", "")}
	ui := newUI()

	root := &cobra.Command{
		Use:   "soapctl",
		Short: "soapgate CLI",
		Long:  "soapctl calls SOAP services through the soapgate handler and prints normalized results.",
	}
	root.SetHelpTemplate(helpTemplate(ui))
	root.SilenceUsage = true

	root.PersistentFlags().StringVar(&g.configPath, "config", g.configPath, "YAML config file (same format as the gateway)")
	root.PersistentFlags().StringVar(&g.baseURL, "base-url", "", "SOAP service base URL")
	root.PersistentFlags().StringVar(&g.endpoint, "endpoint", "", "WSDL endpoint relative to the base URL")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "Debug mode: include raw transport detail in failure messages")
	root.PersistentFlags().BoolVar(&g.throw, "throw", false, "Fail on connection and structural errors")
	root.PersistentFlags().StringVar(&g.login, "login", "", "HTTP basic auth login")
	root.PersistentFlags().BoolVar(&g.askPassword, "ask-password", false, "Prompt for the HTTP basic auth password")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log handler activity to stderr")

	root.AddCommand(probeCmd(g, ui))
	root.AddCommand(callCmd(g, ui))
	root.AddCommand(batchCmd(g, ui))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

func probeCmd(g *globals, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check the base URL and load the WSDL",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			s, err := connect(ctx, g, ui)
			if err != nil {
				return err
			}
			defer s.close()

			if !s.handler.IsConnected() {
				fmt.Printf("%s %s\n", ui.err("[DOWN]"), s.handler.ConnectionError())
				return errors.New("not connected")
			}
			fmt.Printf("%s Connected to %s\n", ui.ok("[OK]"), handlerSettings(s.cfg).WSDLURL())
			fmt.Printf("%s mode=%s throwErrors=%t\n", ui.dim("      "), s.handler.Mode(), s.handler.ThrowErrors())
			return nil
		},
	}
}

func callCmd(g *globals, ui *ui) *cobra.Command {
	var (
		argsJSON  string
		container string
		status    string
		message   string
		aux       string
		extra     []string
		expect    []string
		raw       bool
	)
	cmd := &cobra.Command{
		Use:   "call <method>",
		Short: "Invoke one remote method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs, err := parseArgs(argsJSON)
			if err != nil {
				return err
			}
			req := services.InvokeRequest{
				Method: args[0],
				Args:   callArgs,
				Struct: domain.StructDescriptor{
					Container: container,
					Status:    status,
					Message:   message,
					Auxiliary: aux,
					Extra:     extra,
				},
				Expect: expectValues(expect),
			}
			if err := req.Validate(); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			s, err := connect(ctx, g, ui)
			if err != nil {
				return err
			}
			defer s.close()

			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Calling " + req.Method + "..."
			spin.Start()
			rec, callErr := s.calls.Invoke(ctx, req)
			spin.Stop()
			if rec == nil {
				return callErr
			}

			if raw {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(rec)
			} else {
				printRecord(ui, rec)
			}
			return callErr
		},
	}
	cmd.Flags().StringVar(&argsJSON, "args", "", "JSON argument list, or a single JSON value")
	cmd.Flags().StringVar(&container, "container", "", "Reply field holding the result struct")
	cmd.Flags().StringVar(&status, "status", "", "Status field inside the container")
	cmd.Flags().StringVar(&message, "message", "", "Message field inside the container")
	cmd.Flags().StringVar(&aux, "aux", "", "Auxiliary message field appended to the message")
	cmd.Flags().StringSliceVar(&extra, "extra", nil, "Extra container fields copied into the payload")
	cmd.Flags().StringSliceVar(&expect, "expect", nil, "Status values that count as success (default 1)")
	cmd.Flags().BoolVar(&raw, "json", false, "Print the full call record as JSON")
	return cmd
}

// connect builds the handler from the config file and flags. Connection
// failures are reported by the handler itself unless --throw is set.
func connect(ctx context.Context, g *globals, ui *ui) (*session, error) {
	cfg, err := config.LoadConfigOptional(g.configPath)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, g); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("base url is required (--base-url, SOAP_BASE_URL or baseUrl in --config)")
	}

	level := "warn"
	if g.verbose {
		level = "debug"
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:   level,
		Format:  "text",
		Path:    cfg.LogPath,
		Channel: cfg.LogChannel,
		Service: "soapctl",
		Stdout:  os.Stderr,
	})
	if err != nil {
		return nil, err
	}

	spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
	spin.Suffix = " Connecting to " + cfg.BaseURL + "..."
	spin.Start()
	h, err := handler.New(ctx, handlerSettings(cfg), handler.WithLogger(logger))
	spin.Stop()
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	if !h.IsConnected() {
		fmt.Fprintf(os.Stderr, "%s %s\n", ui.warn("[WARN]"), h.ConnectionError())
	}

	repo := repository.NewMemoryCallRepository(cfg.AuditRetention(), cfg.AuditMaxPerMethod)
	return &session{
		cfg:     cfg,
		handler: h,
		calls:   services.NewCallService(h, repo, cfg.BaseURL, logger, nil),
		logger:  logger,
		close:   closeLog,
	}, nil
}

func applyFlags(cfg *config.Config, g *globals) error {
	if g.baseURL != "" {
		cfg.BaseURL = g.baseURL
	}
	if g.endpoint != "" {
		cfg.Endpoint = g.endpoint
	}
	if g.debug {
		cfg.Mode = domain.ModeDebug
	}
	if g.throw {
		cfg.ThrowErrors = true
	}
	if g.login != "" {
		cfg.SOAP.Login = g.login
	}
	if g.askPassword {
		p, err := promptSecret("SOAP password")
		if err != nil {
			return err
		}
		cfg.SOAP.Password = p
	}
	return nil
}

func handlerSettings(cfg *config.Config) handler.Settings {
	return handler.Settings{
		BaseURL:     cfg.BaseURL,
		Endpoint:    cfg.Endpoint,
		Mode:        cfg.Mode,
		ThrowErrors: cfg.ThrowErrors,
		Timeout:     cfg.Timeout(),
		SOAP:        cfg.SOAP,
		Channel:     cfg.LogChannel,
	}
}

// parseArgs accepts a JSON array (the positional argument list) or any other
// JSON value, which becomes the single argument.
func parseArgs(s string) ([]any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("--args is not valid JSON: %w", err)
	}
	if list, ok := v.([]any); ok {
		return list, nil
	}
	return []any{v}, nil
}

func expectValues(vals []string) []any {
	if len(vals) == 0 {
		return nil
	}
	out := make([]any, 0, len(vals))
	for _, v := range vals {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

func printRecord(ui *ui, rec *domain.CallRecord) {
	res := rec.Result
	if res.Succeeded {
		fmt.Printf("%s %s %s\n", ui.ok("[OK]"), rec.Method, res.Message)
	} else {
		fmt.Printf("%s %s %s\n", ui.err("[FAIL]"), rec.Method, res.Message)
	}
	if level, ok := res.ErrorLevel(); ok {
		fmt.Printf("%s level=%s\n", ui.dim("      "), level)
	}
	if fields, ok := res.Fields(); ok && len(fields) > 0 {
		b, _ := json.MarshalIndent(fields, "", "  ")
		fmt.Println(string(b))
	}
	fmt.Printf("%s %dms id=%s\n", ui.dim("      "), rec.DurationMs, rec.ID)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func promptSecret(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func helpTemplate(ui *ui) string {
	title := ui.title("soapctl")
	return fmt.Sprintf(`%s: SOAP calls with normalized results

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Global Flags:
  {{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

Examples:
  soapctl probe --base-url http://svc.local --endpoint users.asmx?wsdl
  soapctl call GetUser --args '[{"id":7}]' --container GetUserResult --status status --message msg --extra name,email
  soapctl batch calls.yaml --throw

`, title)
}
