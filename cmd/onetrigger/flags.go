package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/grycap/onetrigger/internal/config"
)

// cliOptions holds the values given on the command line. Empty values leave
// the file and environment settings untouched.
type cliOptions struct {
	configPath string
	host       string
	token      string
	insecure   bool
	space      string
	webhook    string
	folder     string
	logLevel   string
}

// newFlagSet registers the flags of a subcommand. Each setting has a long
// name and a short alias bound to the same variable.
func newFlagSet(name string, opts *cliOptions, output io.Writer, withSpace, withWebhook bool) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	stringFlag(fs, &opts.configPath, "config", "c", "Path to a YAML/JSON configuration file")
	stringFlag(fs, &opts.host, "oneprovider-host", "H", "Oneprovider hostname or IP")
	stringFlag(fs, &opts.token, "token", "t", "Onedata access token")
	fs.BoolVar(&opts.insecure, "insecure", false, "Connect to a provider without a trusted certificate")
	fs.BoolVar(&opts.insecure, "i", false, "Alias for --insecure")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	if withSpace {
		stringFlag(fs, &opts.space, "space", "s", "Onedata space name or ID")
		stringFlag(fs, &opts.folder, "folder", "f", "Folder inside the space to watch")
	}
	if withWebhook {
		stringFlag(fs, &opts.webhook, "webhook", "w", "Webhook to send events")
	}

	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: onetrigger %s [flags]\n\nFlags:\n", name)
		fs.PrintDefaults()
	}
	return fs
}

func stringFlag(fs *flag.FlagSet, dst *string, long, short, usage string) {
	fs.StringVar(dst, long, "", usage)
	fs.StringVar(dst, short, "", "Alias for --"+long)
}

// applyTo overrides cfg with every flag that was given a value
func (o *cliOptions) applyTo(cfg *config.Config) {
	if o.host != "" {
		cfg.Provider.Host = o.host
	}
	if o.token != "" {
		cfg.Provider.Token = o.token
	}
	if o.insecure {
		cfg.Provider.Insecure = true
	}
	if o.space != "" {
		cfg.Space.Name = o.space
	}
	if o.folder != "" {
		cfg.Space.Folder = o.folder
	}
	if o.webhook != "" {
		cfg.Webhook.URL = o.webhook
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
}
