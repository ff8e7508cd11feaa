// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/config"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/helper/posix"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/verifier"
	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/logger"
)

var (
	// ErrInputRequired is returned when neither a file nor a remote host is given.
	ErrInputRequired = errors.New("cli: certificate file or --remote is required")
	// ErrVerificationFailed is returned when the chain was not accepted.
	ErrVerificationFailed = errors.New("cli: chain verification failed")
	// ErrUnknownFormat is returned for an unsupported --format value.
	ErrUnknownFormat = errors.New("cli: unknown output format")
)

var (
	// OperationPerformed is set once a command got past argument validation.
	OperationPerformed bool
	// OperationPerformedSuccessfully is set when that command completed without error.
	OperationPerformedSuccessfully bool
)

// Execute runs the root command with the process arguments.
//
// Parameters:
//   - ctx: Context for cancellation, typically tied to SIGINT/SIGTERM
//   - version: Version string shown by --version and sent as User-Agent
//   - log: Logger for progress output
//
// Returns:
//   - error: Command error, including [ErrVerificationFailed]
func Execute(ctx context.Context, version string, log logger.Logger) error {
	return NewRootCommand(version, log).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string, log logger.Logger) *cobra.Command {
	log = logger.OrDiscard(log)
	OperationPerformed = false
	OperationPerformedSuccessfully = false

	var configFile string
	rootCmd := &cobra.Command{
		Use:           posix.ExecutableName("x509-chain-verifier"),
		Short:         "X.509 certificate chain verifier",
		Long:          "Builds certificate chains to a trusted root, validates them and checks revocation through CRLs and a cached OCSP client.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file (JSON or YAML), or "+config.EnvConfigFile)

	env := &environment{version: version, log: log, configFile: &configFile}
	rootCmd.AddCommand(newVerifyCommand(env), newOCSPCommand(env))
	return rootCmd
}

// environment carries what every subcommand needs.
type environment struct {
	version    string
	log        logger.Logger
	configFile *string
}

// load reads the configuration and builds a verifier from it.
func (e *environment) load() (*config.Config, *verifier.Verifier, error) {
	cfg, err := config.Load(*e.configFile)
	if err != nil {
		return nil, nil, err
	}
	store, err := cfg.LoadStore(e.log)
	if err != nil {
		return nil, nil, err
	}
	if store.Len() == 0 {
		e.log.Println("warning: trust store is empty, configure trust.rootFiles or trust.rootDirs")
	}
	v, err := verifier.New(cfg, store, e.version, e.log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// readCertificates decodes every certificate of every file, in order.
func readCertificates(paths ...string) ([]*x509.Certificate, error) {
	decoder := x509certs.New()

	var certs []*x509.Certificate
	for _, path := range paths {
		data, err := gc.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
		decoded, err := decoder.DecodeMultiple(data)
		if err != nil {
			return nil, fmt.Errorf("error decoding %s: %w", path, err)
		}
		certs = append(certs, decoded...)
	}
	if len(certs) == 0 {
		return nil, x509certs.ErrNilCertificate
	}
	return certs, nil
}
