package cmd

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	awsclient "tasnim.dev/deployment-cleaner/internal/aws"
	"tasnim.dev/deployment-cleaner/internal/config"
	"tasnim.dev/deployment-cleaner/internal/logging"
	"tasnim.dev/deployment-cleaner/internal/minio"
	"tasnim.dev/deployment-cleaner/internal/storage"
)

// connectionFlags are shared by every command that talks to a bucket.
type connectionFlags struct {
	configPath string
	bucket     string
	prefix     string
	endpoint   string
	profile    string
	region     string
	backend    string
	pathStyle  bool
	logLevel   string
}

func (f *connectionFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.bucket, "bucket", "b", "", "Bucket from which deployments are read")
	flags.StringVar(&f.prefix, "prefix", "", "Only consider keys under this prefix")
	flags.StringVar(&f.endpoint, "endpoint-url", "", "Alternate S3 endpoint URL, e.g. http://localhost:4566 for localstack")
	flags.StringVarP(&f.profile, "profile", "p", "", "AWS profile to use")
	flags.StringVarP(&f.region, "region", "r", "", "AWS region to use")
	flags.StringVar(&f.backend, "backend", "", "Storage backend: s3 or minio (default s3)")
	flags.BoolVar(&f.pathStyle, "path-style", false, "Use path-style bucket addressing")
	flags.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error (default info)")
	flags.StringVar(&f.configPath, "config", "", "Config file (default ~/.config/deployment-cleaner/config.yaml)")
	_ = cmd.MarkFlagRequired("bucket")
}

type storageOptions struct {
	backend string
	aws     awsclient.Options
}

// openStorage is swapped out in tests.
var openStorage = func(ctx context.Context, log zerolog.Logger, opts storageOptions) (storage.Storage, error) {
	if opts.backend == config.BackendMinIO {
		client, err := minio.New(minio.Config{
			Endpoint:        opts.aws.Endpoint,
			AccessKeyID:     opts.aws.AccessKeyID,
			SecretAccessKey: opts.aws.SecretAccessKey,
			Region:          opts.aws.Region,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	client, err := awsclient.NewServiceClient(ctx, opts.aws)
	if err != nil {
		return nil, err
	}
	if client.AccountID != "" {
		log.Info().Str("account", client.AccountID).Msg("Using AWS account")
	}
	return client.S3, nil
}

// open builds the run's logger and storage client from flags and the
// config file. Failures are logged before they are returned.
func (f *connectionFlags) open(cmd *cobra.Command) (zerolog.Logger, storage.Storage, error) {
	log := logging.New(cmd.OutOrStdout(), zerolog.InfoLevel)

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load config")
		return log, nil, err
	}

	level, err := logging.ParseLevel(cfg.Level(f.logLevel))
	if err != nil {
		log.Error().Err(err).Msg("Invalid log level")
		return log, nil, err
	}
	log = log.Level(level)

	backend, err := cfg.StorageBackend(f.backend)
	if err != nil {
		log.Error().Err(err).Msg("Invalid storage backend")
		return log, nil, err
	}

	profile, region := cfg.Merge(f.profile, f.region)
	opts := storageOptions{
		backend: backend,
		aws: awsclient.Options{
			Profile:         profile,
			Region:          region,
			Endpoint:        cfg.Endpoint(f.endpoint),
			PathStyle:       f.pathStyle || cfg.PathStyle,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		},
	}
	if backend == config.BackendMinIO && opts.aws.Endpoint == "" {
		err := errors.New("the minio backend requires --endpoint-url")
		log.Error().Err(err).Msg("Invalid storage backend")
		return log, nil, err
	}

	log.Debug().
		Str("backend", backend).
		Str("endpoint", opts.aws.Endpoint).
		Str("profile", profile).
		Str("region", region).
		Msg("Setting up storage client")

	store, err := openStorage(cmd.Context(), log, opts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to set up storage client")
		return log, nil, err
	}
	return log, store, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
