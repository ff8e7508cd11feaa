// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/verifier"
	x509ocsp "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/ocsp"
)

func newOCSPCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocsp",
		Short: "OCSP requests and response cache",
	}
	cmd.AddCommand(newOCSPRequestCommand(env), newOCSPStatusCommand(env), newOCSPInspectCommand(env))
	return cmd
}

// chainRequest reads CHAIN_FILE plus --untrusted files into a request.
func chainRequest(args []string, untrusted []string) (verifier.Request, error) {
	certs, err := readCertificates(append([]string{args[0]}, untrusted...)...)
	if err != nil {
		return verifier.Request{}, err
	}
	return verifier.Request{Leaf: certs[0], Intermediates: certs[1:]}, nil
}

func newOCSPRequestCommand(env *environment) *cobra.Command {
	var (
		depth      int
		untrusted  []string
		outputFile string
	)
	cmd := &cobra.Command{
		Use:   "request CHAIN_FILE",
		Short: "Build the OCSP request for a chain element",
		Long:  "Builds the chain of the first certificate in CHAIN_FILE and prints the DER OCSP request for the certificate at --depth, base64 encoded unless --output is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, v, err := env.load()
			if err != nil {
				return err
			}
			req, err := chainRequest(args, untrusted)
			if err != nil {
				return err
			}
			OperationPerformed = true

			ocspReq, err := v.BuildRequest(cmd.Context(), req, depth)
			if err != nil {
				return err
			}

			if outputFile != "" {
				if err := writeOutput(cmd, outputFile, ocspReq.DER); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", base64.StdEncoding.EncodeToString(ocspReq.DER))
			}
			if len(ocspReq.Subject.OCSPServer) > 0 {
				env.log.Printf("responder: %s", strings.Join(ocspReq.Subject.OCSPServer, ", "))
			}

			OperationPerformedSuccessfully = true
			return nil
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "chain depth of the certificate, 0 is the leaf")
	cmd.Flags().StringSliceVarP(&untrusted, "untrusted", "u", nil, "files with additional untrusted intermediates")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the DER request to OUTPUT_FILE")
	return cmd
}

func newOCSPStatusCommand(env *environment) *cobra.Command {
	var untrusted []string
	cmd := &cobra.Command{
		Use:   "status CHAIN_FILE",
		Short: "Show cached OCSP responses for a chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, v, err := env.load()
			if err != nil {
				return err
			}
			req, err := chainRequest(args, untrusted)
			if err != nil {
				return err
			}
			OperationPerformed = true

			entries, status, err := v.CacheStatus(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Chain: %s\nCache: %s\n", status, v.Cache().Dir())
			for _, e := range entries {
				line := fmt.Sprintf("[%d] %s: %s", e.Depth, e.Cert.Subject.CommonName, e.Lookup.Result)
				if e.Lookup.Result != x509ocsp.Miss {
					line += fmt.Sprintf(" (%s, expires %s)", e.Lookup.Status, e.Lookup.Expires.UTC().Format(time.RFC3339))
				}
				fmt.Fprintln(out, line)
			}

			OperationPerformedSuccessfully = true
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&untrusted, "untrusted", "u", nil, "files with additional untrusted intermediates")
	return cmd
}

func newOCSPInspectCommand(env *environment) *cobra.Command {
	var (
		depth     int
		untrusted []string
	)
	cmd := &cobra.Command{
		Use:   "inspect RESPONSE_FILE CHAIN_FILE",
		Short: "Validate a DER OCSP response without caching it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, v, err := env.load()
			if err != nil {
				return err
			}
			raw, err := gc.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("error reading %s: %w", args[0], err)
			}
			req, err := chainRequest(args[1:], untrusted)
			if err != nil {
				return err
			}
			OperationPerformed = true

			ocspReq, err := v.BuildRequest(cmd.Context(), req, depth)
			if err != nil {
				return err
			}
			next, err := x509ocsp.DecodeToExpiration(raw, ocspReq, ocspReq.Subject, ocspReq.Issuer)
			if err != nil {
				return err
			}

			if next.IsZero() {
				fmt.Fprintln(cmd.OutOrStdout(), "Response valid, no nextUpdate")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Response valid until %s\n", next.UTC().Format(time.RFC3339))
			}

			OperationPerformedSuccessfully = true
			return nil
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "chain depth of the certificate the response is about")
	cmd.Flags().StringSliceVarP(&untrusted, "untrusted", "u", nil, "files with additional untrusted intermediates")
	return cmd
}
