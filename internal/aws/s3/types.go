package s3

import "tasnim.dev/deployment-cleaner/internal/storage"

// ListObjectsResult is one page of a bucket listing.
type ListObjectsResult struct {
	Objects   []storage.Object
	NextToken string
}
