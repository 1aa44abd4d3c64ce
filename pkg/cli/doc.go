// Package cli provides the configuration and terminal helpers of the
// execlive command.
//
// Configuration is stored in ~/.execlive/<app>/config.yaml as a set of
// kubectl-like contexts. Environment variables are overlaid on the
// selected context when it is resolved:
//
//	cfg, err := cli.LoadConfig("execlive")
//	ctx, err := cfg.ResolveContext("") // current context + environment
package cli
