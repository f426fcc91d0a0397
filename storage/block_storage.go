package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/ulikunitz/xz"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

type s3Uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// BlockStorage archives run reports as xz compressed JSON objects in S3.
type BlockStorage struct {
	uploader s3Uploader
	bucket   string
}

func NewBlockStorage(host, region, accessKey, secretKey, bucket string) (*BlockStorage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("block storage bucket is required")
	}
	awsCfg := &aws.Config{
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if host != "" {
		awsCfg.Endpoint = aws.String(host)
	}
	if accessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return &BlockStorage{
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
	}, nil
}

func ReportKey(run *types.PayrollRun) string {
	return fmt.Sprintf("runs/%s/%04d/%02d/%s.json.xz",
		strings.ToLower(run.Contract.Hex()),
		run.StartedAt.UTC().Year(),
		int(run.StartedAt.UTC().Month()),
		run.ID,
	)
}

func (bs *BlockStorage) Upload(ctx context.Context, run *types.PayrollRun) (string, error) {
	body, err := EncodeReport(run)
	if err != nil {
		return "", err
	}

	key := ReportKey(run)
	_, err = bs.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(bs.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/x-xz"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}
	return key, nil
}

func EncodeReport(run *types.PayrollRun) ([]byte, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress report: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress report: %w", err)
	}
	return buf.Bytes(), nil
}

func DecodeReport(r io.Reader) (*types.PayrollRun, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xz stream: %w", err)
	}
	var run types.PayrollRun
	if err := json.NewDecoder(xr).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &run, nil
}
