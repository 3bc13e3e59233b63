// Package storage archivo de recibos en S3 o un servicio compatible (MinIO, R2).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jhoicas/Tienda-api/pkg/config"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// putObjectAPI subconjunto de *s3.Client.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive implementa sales.ReceiptArchive.
type S3Archive struct {
	client  putObjectAPI
	bucket  string
	baseURL string
	log     *logger.Logger
}

// NewS3Archive arma el cliente. Con Endpoint definido usa path-style, necesario para MinIO.
// Sin AccessKey se usa la cadena de credenciales por defecto del SDK.
func NewS3Archive(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (*S3Archive, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("storage: S3_BUCKET vacío")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: configuración AWS: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Archive(client, cfg, log), nil
}

func newS3Archive(client putObjectAPI, cfg config.StorageConfig, log *logger.Logger) *S3Archive {
	if log == nil {
		log = logger.Nop()
	}
	base := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	if cfg.Endpoint != "" {
		base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &S3Archive{client: client, bucket: cfg.Bucket, baseURL: base, log: log.Component("storage")}
}

// PutReceipt sube el PDF bajo key y devuelve su URL.
func (a *S3Archive) PutReceipt(ctx context.Context, key string, pdf []byte) (string, error) {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(pdf),
		ContentType:   aws.String("application/pdf"),
		ContentLength: aws.Int64(int64(len(pdf))),
	})
	if err != nil {
		return "", fmt.Errorf("storage: subir %s: %w", key, err)
	}
	a.log.Debug().Str("key", key).Int("bytes", len(pdf)).Msg("recibo archivado")
	return a.baseURL + "/" + key, nil
}
