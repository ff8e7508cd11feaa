// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"fmt"
	"net"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/config"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/verifier"
	x509chain "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/chain"
	x509remote "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/remote"
)

type verifyOptions struct {
	remote     string
	untrusted  []string
	hostname   string
	email      string
	ip         string
	purposes   []string
	at         string
	maxDepth   int
	checkOCSP  bool
	format     string
	outputFile string
}

func newVerifyCommand(env *environment) *cobra.Command {
	opts := &verifyOptions{}
	cmd := &cobra.Command{
		Use:   "verify [CERT_FILE...]",
		Short: "Build and verify a certificate chain",
		Long: "Builds the chain of the first certificate of the first CERT_FILE (every other certificate of every file is an untrusted intermediate) " +
			"or of the chain presented by --remote, verifies it against the configured trust store and reports the result. " +
			"With --remote, CERT_FILE arguments only add intermediates.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, env, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.remote, "remote", "r", "", "fetch the chain from a TLS server, HOST[:PORT]")
	f.StringSliceVarP(&opts.untrusted, "untrusted", "u", nil, "files with additional untrusted intermediates")
	f.StringVar(&opts.hostname, "hostname", "", "hostname the leaf must match (defaults to the --remote host)")
	f.StringVar(&opts.email, "email", "", "email address the leaf must match")
	f.StringVar(&opts.ip, "ip", "", "IP address the leaf must match")
	f.StringSliceVar(&opts.purposes, "purpose", nil, "required extended key usages, e.g. serverAuth (overrides verify.keyUsages)")
	f.StringVar(&opts.at, "at", "", "verification time in RFC 3339 (default: now)")
	f.IntVar(&opts.maxDepth, "max-depth", 0, "maximum number of intermediates (overrides verify.maxDepth)")
	f.BoolVar(&opts.checkOCSP, "ocsp", false, "check revocation of every certificate below the root through OCSP")
	f.StringVarP(&opts.format, "format", "f", "tree", "report format: tree, table or json")
	f.StringVarP(&opts.outputFile, "output", "o", "", "write the report to OUTPUT_FILE (default: stdout)")
	return cmd
}

func runVerify(cmd *cobra.Command, env *environment, opts *verifyOptions, args []string) error {
	if len(args) == 0 && opts.remote == "" {
		return ErrInputRequired
	}
	if !validFormat(opts.format) {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.format)
	}

	cfg, v, err := env.load()
	if err != nil {
		return err
	}

	req, err := buildRequest(cmd, env, cfg, opts, args)
	if err != nil {
		return err
	}
	OperationPerformed = true

	res, err := v.Verify(cmd.Context(), req)
	if err != nil {
		return err
	}

	out, err := render(res, opts.format)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd, opts.outputFile, out); err != nil {
		return err
	}

	if res.Fetched > 0 {
		env.log.Printf("downloaded %d issuer certificate(s)", res.Fetched)
	}
	if res.Repairs > 0 {
		env.log.Printf("chain rebuilt %d time(s) after signature failures", res.Repairs)
	}
	if !res.Accepted() {
		return fmt.Errorf("%w: %s at depth %d", ErrVerificationFailed, res.Status, res.ErrorDepth)
	}

	OperationPerformedSuccessfully = true
	return nil
}

// buildRequest gathers certificates and verification parameters.
func buildRequest(cmd *cobra.Command, env *environment, cfg *config.Config, opts *verifyOptions, args []string) (verifier.Request, error) {
	req := verifier.Request{OCSP: opts.checkOCSP}

	if opts.remote != "" {
		host, port, err := x509remote.ParseTarget(opts.remote)
		if err != nil {
			return req, err
		}
		env.log.Printf("fetching certificate chain from %s:%d", host, port)
		peer, err := x509remote.FetchRemoteChain(cmd.Context(), host, port, cfg.Timeout())
		if err != nil {
			return req, err
		}
		req.Leaf = peer.Leaf
		req.Intermediates = peer.Intermediates
		req.Stapled = peer.Stapled
		if opts.hostname == "" && net.ParseIP(host) == nil {
			opts.hostname = host
		}
	} else {
		certs, err := readCertificates(args...)
		if err != nil {
			return req, err
		}
		req.Leaf = certs[0]
		req.Intermediates = certs[1:]
		args = nil
	}

	if extraFiles := slices.Concat(args, opts.untrusted); len(extraFiles) > 0 {
		extra, err := readCertificates(extraFiles...)
		if err != nil {
			return req, err
		}
		req.Intermediates = append(req.Intermediates, extra...)
	}

	params, err := verifyParams(cfg, opts)
	if err != nil {
		return req, err
	}
	req.Params = params
	return req, nil
}

// verifyParams merges flags over the configuration.
func verifyParams(cfg *config.Config, opts *verifyOptions) (x509chain.Params, error) {
	p := x509chain.Params{
		MaxDepth: cfg.Verify.MaxDepth,
		Hostname: opts.hostname,
		Email:    opts.email,
	}
	if opts.maxDepth > 0 {
		p.MaxDepth = opts.maxDepth
	}

	if opts.ip != "" {
		if p.IPAddress = net.ParseIP(opts.ip); p.IPAddress == nil {
			return p, fmt.Errorf("invalid --ip %q", opts.ip)
		}
	}

	if opts.at != "" {
		at, err := time.Parse(time.RFC3339, opts.at)
		if err != nil {
			return p, fmt.Errorf("invalid --at: %w", err)
		}
		p.Time = at
	}

	purposes := cfg.Verify.KeyUsages
	if len(opts.purposes) > 0 {
		purposes = opts.purposes
	}
	usages, err := config.ExtKeyUsages(purposes)
	if err != nil {
		return p, err
	}
	if len(usages) > 0 {
		p.KeyUsages = usages
	}
	return p, nil
}

func validFormat(format string) bool {
	switch format {
	case "tree", "table", "json":
		return true
	}
	return false
}

// render formats the verification report.
func render(res *verifier.Result, format string) ([]byte, error) {
	switch format {
	case "json":
		out, err := res.Report.ToVisualizationJSON(res.Revocation)
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case "table":
		return []byte(res.Report.RenderTable(res.Revocation)), nil
	default:
		summary := fmt.Sprintf("Verification: %s\n", res.Status)
		if res.Accepted() {
			summary = "Verification: OK\n"
		}
		return []byte(res.Report.RenderASCIITree(res.Revocation) + summary), nil
	}
}

func writeOutput(cmd *cobra.Command, outputFile string, data []byte) error {
	if outputFile != "" {
		if err := os.WriteFile(outputFile, data, 0o644); err != nil {
			return fmt.Errorf("error writing to output file: %w", err)
		}
		return nil
	}
	_, err := cmd.OutOrStdout().Write(data)
	return err
}
