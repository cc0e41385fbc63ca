package storage

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	log "github.com/sirupsen/logrus"
)

// S3 is an implementation of Store backed by AWS S3, or by any service
// speaking its protocol when an endpoint is given. Keys are hex-encoded to
// make object names.
type S3 struct {
	profile  string
	region   string
	bucket   string
	endpoint string

	mu     sync.Mutex
	client *s3.S3
}

func NewS3(profile, region, bucket, endpoint string) *S3 {
	return &S3{
		profile:  profile,
		region:   region,
		bucket:   bucket,
		endpoint: endpoint,
	}
}

func (s *S3) Get(key []byte) (value []byte, err error) {
	client, err := s.ensureClient()
	if err != nil {
		return nil, err
	}
	hexKey := fmt.Sprintf("%x", key)
	output, err := client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(hexKey),
	})
	if err != nil {
		if rfErr, ok := err.(awserr.RequestFailure); ok {
			if rfErr.StatusCode() == http.StatusNotFound {
				return nil, fmt.Errorf("%.40q: %w", key, ErrNotFound)
			}
		}
		return nil, err
	}
	defer func() {
		if err := output.Body.Close(); err != nil {
			log.WithFields(log.Fields{
				"op":  "get",
				"key": hexKey,
			}).Warning("Could not close response body")
		}
	}()
	value, err = io.ReadAll(output.Body)
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (s *S3) Put(key, value []byte) (err error) {
	client, err := s.ensureClient()
	if err == nil {
		hexKey := fmt.Sprintf("%x", key)
		_, err = client.PutObject(&s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(hexKey),
			Body:        bytes.NewReader(value),
			ContentType: aws.String("text/plain; charset=utf-8"),
		})
	}
	return
}

func (s *S3) ensureClient() (*s3.S3, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	config := &aws.Config{
		Region:      aws.String(s.region),
		Credentials: credentials.NewSharedCredentials("", s.profile),
	}
	if s.endpoint != "" {
		config.Endpoint = aws.String(s.endpoint)
		config.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, err
	}
	s.client = s3.New(sess)
	return s.client, nil
}
