package lib

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

var s3Client *s3.Client
var s3ClientLock sync.Mutex

func S3Client() *s3.Client {
	s3ClientLock.Lock()
	defer s3ClientLock.Unlock()
	if s3Client == nil {
		s3Client = s3.NewFromConfig(*Session())
	}
	return s3Client
}

const (
	s3SyncConcurrency = 8
	s3DeleteBatchSize = 1000
)

type SyncObject struct {
	Key  string
	Etag string
	Size int64
	Path string
}

type SyncPlan struct {
	Uploads []SyncObject
	Deletes []string
}

func (p *SyncPlan) Empty() bool {
	return len(p.Uploads) == 0 && len(p.Deletes) == 0
}

// s3SyncPlan diffs local files against remote objects by md5 etag. Pure so it
// can be tested without any client.
func s3SyncPlan(local []SyncObject, remote map[string]string, prune bool) *SyncPlan {
	plan := &SyncPlan{}
	seen := make(map[string]bool)
	for _, obj := range local {
		seen[obj.Key] = true
		if remote[obj.Key] != obj.Etag {
			plan.Uploads = append(plan.Uploads, obj)
		}
	}
	if prune {
		for key := range remote {
			if !seen[key] {
				plan.Deletes = append(plan.Deletes, key)
			}
		}
		sort.Strings(plan.Deletes)
	}
	return plan
}

func s3LocalObjects(dir, prefix string) ([]SyncObject, error) {
	var objects []SyncObject
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		hash := md5.New()
		size, err := io.Copy(hash, f)
		if err != nil {
			return err
		}
		objects = append(objects, SyncObject{
			Key:  prefix + filepath.ToSlash(rel),
			Etag: hex.EncodeToString(hash.Sum(nil)),
			Size: size,
			Path: path,
		})
		return nil
	})
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func s3RemoteObjects(ctx context.Context, bucket, prefix string) (map[string]string, error) {
	remote := make(map[string]string)
	var token *string
	for {
		out, err := S3Client().ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			Logger.Println("error:", err)
			return nil, err
		}
		for _, obj := range out.Contents {
			if obj.Key == nil || obj.ETag == nil {
				continue
			}
			// multipart etags have a -N suffix and never match a plain
			// md5, which forces a re-upload, which is fine
			remote[*obj.Key] = strings.Trim(*obj.ETag, `"`)
		}
		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	return remote, nil
}

// S3SyncDir reconciles a local directory against bucket/prefix: uploads
// changed or missing files, and with prune also deletes remote strays.
func S3SyncDir(ctx context.Context, dir, bucket, prefix string, prune, preview bool) (*SyncPlan, error) {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	local, err := s3LocalObjects(dir, prefix)
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	remote, err := s3RemoteObjects(ctx, bucket, prefix)
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	plan := s3SyncPlan(local, remote, prune)
	for _, obj := range plan.Uploads {
		Logger.Println(PreviewString(preview)+"s3 put:", fmt.Sprintf("s3://%s/%s", bucket, obj.Key), humanize.Bytes(uint64(obj.Size)))
	}
	for _, key := range plan.Deletes {
		Logger.Println(PreviewString(preview)+"s3 delete:", fmt.Sprintf("s3://%s/%s", bucket, key))
	}
	if preview || plan.Empty() {
		return plan, nil
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s3SyncConcurrency)
	for _, obj := range plan.Uploads {
		group.Go(func() error {
			f, err := os.Open(obj.Path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			_, err = S3Client().PutObject(groupCtx, &s3.PutObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(obj.Key),
				Body:   f,
			})
			return err
		})
	}
	err = group.Wait()
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	for i := 0; i < len(plan.Deletes); i += s3DeleteBatchSize {
		end := min(i+s3DeleteBatchSize, len(plan.Deletes))
		var objects []s3types.ObjectIdentifier
		for _, key := range plan.Deletes[i:end] {
			objects = append(objects, s3types.ObjectIdentifier{Key: aws.String(key)})
		}
		_, err := S3Client().DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &s3types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			Logger.Println("error:", err)
			return nil, err
		}
	}
	return plan, nil
}
