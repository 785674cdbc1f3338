// Command sofetch issues HTTP requests through the sofetch client, mostly
// for poking at APIs and for exercising a config file before shipping it.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/danbahrami/sofetch"
	"github.com/danbahrami/sofetch/config"
	"github.com/danbahrami/sofetch/loghook"
	"github.com/danbahrami/sofetch/stathook"
	"github.com/danbahrami/sofetch/version"
)

type flags struct {
	baseURL    string
	configPath string
	headers    []string
	query      []string
	data       string
	json       string
	bearer     string
	userAgent  string
	include    bool
	verbose    bool
	repeat     int
	stats      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "sofetch",
		Short:         "An ergonomic HTTP client for the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.baseURL, "base-url", "", "base URL relative targets resolve against")
	pf.StringVarP(&f.configPath, "config", "c", "", "client configuration file (yaml/json/toml)")
	pf.StringArrayVarP(&f.headers, "header", "H", nil, "request header, key: value (repeatable)")
	pf.StringArrayVarP(&f.query, "query", "q", nil, "query parameter, key=value (repeatable)")
	pf.StringVarP(&f.data, "data", "d", "", "raw request body")
	pf.StringVar(&f.json, "json", "", "JSON request body (sets content-type)")
	pf.StringVar(&f.bearer, "bearer", "", "bearer token for the Authorization header")
	pf.StringVar(&f.userAgent, "user-agent", "", "User-Agent override")
	pf.BoolVarP(&f.include, "include", "i", false, "print response headers")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "log the request lifecycle to stderr")
	pf.IntVar(&f.repeat, "repeat", 1, "issue the request N times")
	pf.BoolVar(&f.stats, "stats", false, "print latency percentiles (implies discarding bodies)")

	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"} {
		root.AddCommand(newVerbCmd(method, f))
	}
	root.AddCommand(newVersionCmd())
	return root
}

func newVerbCmd(method string, f *flags) *cobra.Command {
	verb := strings.ToLower(method)
	return &cobra.Command{
		Use:   verb + " <url>",
		Short: "Issue a " + method + " request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), method, args[0], f)
		},
	}
}

func newVersionCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			switch output {
			case "json":
				s, err := info.ToJSON()
				if err != nil {
					return err
				}
				fmt.Println(s)
			case "short":
				fmt.Println(info.String())
			default:
				fmt.Println(info.Text())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json, short)")
	return cmd
}

func run(ctx context.Context, method, target string, f *flags) error {
	client, err := buildClient(f)
	if err != nil {
		return err
	}

	if f.verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		loghook.Attach(client.Hooks(), logger)
	}

	var recorder *stathook.Recorder
	if f.stats {
		recorder = stathook.NewRecorder()
		recorder.Attach(client.Hooks())
	}

	opts, err := buildRequestOptions(method, f)
	if err != nil {
		return err
	}

	if f.repeat < 1 {
		f.repeat = 1
	}
	var last *sofetch.Response
	var lastErr error
	for i := 0; i < f.repeat; i++ {
		resp, err := client.Request(ctx, target, opts...)
		if err != nil {
			lastErr = err
			continue
		}
		if last != nil {
			_ = last.Blob().Close()
		}
		last = resp
	}

	if recorder != nil {
		printStats(os.Stderr, recorder.Snapshot())
	}

	if lastErr != nil {
		// A non-2xx response is still worth printing, like curl does.
		if he, ok := sofetch.AsHTTPError(lastErr); ok {
			printStatusAndHeaders(os.Stdout, he.Response.Proto, he.Response.Status, he.Response.Header, f.include)
			if len(he.RawBody) > 0 {
				fmt.Println(string(he.RawBody))
			}
		}
		return lastErr
	}

	printStatusAndHeaders(os.Stdout, last.Proto, last.Status, last.Header, f.include)
	if !f.stats {
		body, err := last.Bytes()
		if err != nil {
			return err
		}
		_, _ = os.Stdout.Write(body)
		if len(body) > 0 && body[len(body)-1] != '\n' {
			fmt.Println()
		}
	}
	return nil
}

func buildClient(f *flags) (*sofetch.Client, error) {
	var extra []sofetch.ClientOption
	if f.baseURL != "" {
		extra = append(extra, sofetch.WithBaseURL(f.baseURL))
	}
	if f.userAgent != "" {
		extra = append(extra, sofetch.WithUserAgent(f.userAgent))
	}
	if f.configPath != "" {
		loader, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		return loader.NewClient(extra...)
	}
	return sofetch.New(extra...)
}

func buildRequestOptions(method string, f *flags) ([]sofetch.RequestOption, error) {
	opts := []sofetch.RequestOption{sofetch.WithMethod(method)}

	for _, h := range f.headers {
		key, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header %q, want key: value", h)
		}
		opts = append(opts, sofetch.WithHeader(strings.TrimSpace(key), strings.TrimSpace(value)))
	}
	for _, q := range f.query {
		key, value, ok := strings.Cut(q, "=")
		if !ok {
			return nil, fmt.Errorf("malformed query parameter %q, want key=value", q)
		}
		opts = append(opts, sofetch.WithQueryParam(key, value))
	}

	if f.json != "" && f.data != "" {
		return nil, fmt.Errorf("--json and --data are mutually exclusive")
	}
	if f.json != "" {
		// The body is already JSON text; send it verbatim but keep the
		// content-type behavior of a JSON request.
		opts = append(opts,
			sofetch.WithBodyBytes([]byte(f.json)),
			sofetch.WithHeader("Content-Type", "application/json"))
	}
	if f.data != "" {
		opts = append(opts, sofetch.WithBodyBytes([]byte(f.data)))
	}
	if f.bearer != "" {
		opts = append(opts, sofetch.WithBearerToken(f.bearer))
	}
	return opts, nil
}

func printStatusAndHeaders(w io.Writer, proto, status string, header map[string][]string, include bool) {
	fmt.Fprintf(w, "%s %s\n", proto, status)
	if !include {
		return
	}
	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := uitable.New()
	table.Separator = " "
	for _, k := range keys {
		table.AddRow(k+":", strings.Join(header[k], ", "))
	}
	fmt.Fprintln(w, table.String())
}

func printStats(w io.Writer, s stathook.Summary) {
	table := uitable.New()
	table.Separator = " "
	table.RightAlign(0)
	table.AddRow("requests:", fmt.Sprintf("%d", s.Count))
	table.AddRow("p50:", s.P50.String())
	table.AddRow("p90:", s.P90.String())
	table.AddRow("p99:", s.P99.String())
	table.AddRow("max:", s.Max.String())
	fmt.Fprintln(w, table.String())
}
