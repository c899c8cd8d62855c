package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"tasnim.dev/deployment-cleaner/internal/storage"
)

// MaxDeleteKeys is the largest key set a single DeleteObjects request accepts.
const MaxDeleteKeys = 1000

type S3API interface {
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *awss3.DeleteObjectsInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectsOutput, error)
}

type Client struct {
	api S3API
}

var _ storage.Storage = (*Client)(nil)

func NewClient(api S3API) *Client {
	return &Client{api: api}
}

// ListObjects fetches a single page of objects under prefix.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix, continuationToken string) (ListObjectsResult, error) {
	input := &awss3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(1000),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	if continuationToken != "" {
		input.ContinuationToken = aws.String(continuationToken)
	}

	out, err := c.api.ListObjectsV2(ctx, input)
	if err != nil {
		return ListObjectsResult{}, fmt.Errorf("ListObjectsV2: %w", err)
	}

	objects := make([]storage.Object, 0, len(out.Contents))
	for _, obj := range out.Contents {
		var lastModified time.Time
		if obj.LastModified != nil {
			lastModified = *obj.LastModified
		}
		objects = append(objects, storage.Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: lastModified,
		})
	}

	result := ListObjectsResult{Objects: objects}
	if aws.ToBool(out.IsTruncated) {
		if aws.ToString(out.NextContinuationToken) == "" {
			return ListObjectsResult{}, errors.New("ListObjectsV2: truncated page without a continuation token")
		}
		result.NextToken = aws.ToString(out.NextContinuationToken)
	}

	return result, nil
}

// ListAllObjects follows continuation tokens until the listing is exhausted.
func (c *Client) ListAllObjects(ctx context.Context, bucket, prefix string) ([]storage.Object, error) {
	var (
		objects []storage.Object
		token   string
	)
	for {
		page, err := c.ListObjects(ctx, bucket, prefix, token)
		if err != nil {
			return nil, err
		}
		objects = append(objects, page.Objects...)
		if page.NextToken == "" {
			return objects, nil
		}
		token = page.NextToken
	}
}

// DeleteObjects removes keys from bucket, splitting them into requests of at
// most MaxDeleteKeys. A request that fails outright aborts the call. Keys the
// service refuses individually are collected into a
// *storage.PartialDeleteError once every request has been sent.
func (c *Client) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	var failed []storage.KeyError
	for start := 0; start < len(keys); start += MaxDeleteKeys {
		end := min(start+MaxDeleteKeys, len(keys))

		ids := make([]s3types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, s3types.ObjectIdentifier{Key: aws.String(k)})
		}

		out, err := c.api.DeleteObjects(ctx, &awss3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &s3types.Delete{
				Objects: ids,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("DeleteObjects: %w", err)
		}

		for _, e := range out.Errors {
			failed = append(failed, storage.KeyError{
				Key:     aws.ToString(e.Key),
				Code:    aws.ToString(e.Code),
				Message: aws.ToString(e.Message),
			})
		}
	}

	if len(failed) > 0 {
		return &storage.PartialDeleteError{Requested: len(keys), Failed: failed}
	}
	return nil
}

// ErrorCode returns the service error code carried by err, or "" when err
// did not come from the S3 API.
func ErrorCode(err error) string {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return ae.ErrorCode()
	}
	return ""
}
