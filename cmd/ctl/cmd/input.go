package cmd

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// openInput opens a local path, "-" for stdin or an http(s) URL. The size is
// -1 when unknown.
func openInput(ctx context.Context, uri string, insecure, verbose bool) (io.ReadCloser, int64, error) {
	uri = strings.TrimPrefix(uri, "file://")
	switch {
	case uri == "":
		return nil, 0, fmt.Errorf("input is required")
	case uri == "-":
		return io.NopCloser(os.Stdin), -1, nil
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		cl := &http.Client{
			Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: insecure}},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := cl.Do(req)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to download: %w", err)
		}
		if verbose {
			reqDump, _ := httputil.DumpRequest(req, false)
			os.Stderr.Write(reqDump)
			resDump, _ := httputil.DumpResponse(resp, false)
			os.Stderr.Write(resDump)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, 0, fmt.Errorf("failed to download %s: %s", uri, resp.Status)
		}
		return resp.Body, resp.ContentLength, nil
	default:
		f, err := os.Open(uri)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to open file: %w", err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, 0, err
		}
		return f, info.Size(), nil
	}
}

func inputFlags(cmd *cobra.Command) {
	pf := cmd.Flags()
	pf.Bool("insecure", false, "skip TLS verification for https inputs")
	pf.BoolP("verbose", "v", false, "dump http request/response headers to stderr")
}

func openFromFlags(ctx context.Context, cmd *cobra.Command, uri string) (io.ReadCloser, int64, error) {
	insecure, _ := cmd.Flags().GetBool("insecure")
	verbose, _ := cmd.Flags().GetBool("verbose")
	return openInput(ctx, uri, insecure, verbose)
}
