package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3sdk "github.com/aws/aws-sdk-go-v2/service/s3"

	awss3 "tasnim.dev/deployment-cleaner/internal/aws/s3"
)

type ServiceClient struct {
	S3 *awss3.Client

	// AccountID is empty when a custom endpoint is in use or the caller
	// identity could not be resolved.
	AccountID string
}

func NewServiceClient(ctx context.Context, opts Options) (*ServiceClient, error) {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	sc := &ServiceClient{
		S3: awss3.NewClient(awss3sdk.NewFromConfig(cfg, s3Options(opts)...)),
	}
	if opts.Endpoint == "" {
		sc.AccountID = GetAccountID(ctx, cfg)
	}
	return sc, nil
}

func s3Options(opts Options) []func(*awss3sdk.Options) {
	fns := []func(*awss3sdk.Options){
		func(o *awss3sdk.Options) {
			o.UsePathStyle = opts.PathStyle
		},
	}
	if opts.Endpoint != "" {
		fns = append(fns, func(o *awss3sdk.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		})
	}
	return fns
}
