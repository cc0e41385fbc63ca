package storage

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DynamoDBStore is an implementation of Store backed by a DynamoDB table
// whose partition key is the binary attribute "k". Values are kept in the
// binary attribute "va".
type DynamoDBStore struct {
	table string

	// Do throttling on our side based on configured RCUs/WCUs so the
	// client doesn't have to retry.
	getLimiter *rate.Limiter
	putLimiter *rate.Limiter

	ddb *dynamodb.DynamoDB
}

func NewDynamoDBStore(profile, region, table string) (*DynamoDBStore, error) {
	s := &DynamoDBStore{
		table: table,
	}
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewSharedCredentials("", profile),
	})
	if err != nil {
		return nil, err
	}
	s.ddb = dynamodb.New(sess)
	if err := s.configureLimiters(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DynamoDBStore) configureLimiters() error {
	result, err := s.ddb.DescribeTable(&dynamodb.DescribeTableInput{
		TableName: &s.table,
	})
	if err != nil {
		return fmt.Errorf("could not describe table %q: %w", s.table, err)
	}
	var rcus, wcus int64
	if pt := result.Table.ProvisionedThroughput; pt != nil {
		rcus = aws.Int64Value(pt.ReadCapacityUnits)
		wcus = aws.Int64Value(pt.WriteCapacityUnits)
	}
	s.getLimiter = limiterFor(rcus)
	s.putLimiter = limiterFor(wcus)
	log.WithFields(log.Fields{
		"table": s.table,
		"rcus":  rcus,
		"wcus":  wcus,
	}).Debug("Configured limiters")
	return nil
}

// limiterFor assumes that items are <= 1 kB, so that capacity units
// translate to requests per second. Tables in on-demand mode report zero
// units and get no limit.
func limiterFor(units int64) *rate.Limiter {
	if units <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Duration(1_000_000/units)*time.Microsecond), 1)
}

func (s *DynamoDBStore) Put(key []byte, value []byte) (err error) {
	var input dynamodb.PutItemInput
	input.TableName = &s.table
	input.Item = map[string]*dynamodb.AttributeValue{
		"k":  ddbBinary(key),
		"va": ddbBinary(value),
	}
	time.Sleep(s.putLimiter.Reserve().Delay())
	if _, err = s.ddb.PutItem(&input); err != nil {
		return fmt.Errorf("could not put %.40q: %w", key, err)
	}
	return nil
}

func (s *DynamoDBStore) Get(key []byte) (value []byte, err error) {
	var input dynamodb.GetItemInput
	input.TableName = &s.table
	input.Key = map[string]*dynamodb.AttributeValue{
		"k": ddbBinary(key),
	}
	// Reads must observe the put that precedes them.
	input.ConsistentRead = aws.Bool(true)
	time.Sleep(s.getLimiter.Reserve().Delay())
	output, err := s.ddb.GetItem(&input)
	if err != nil {
		if e, ok := err.(awserr.Error); ok {
			if e.Code() == dynamodb.ErrCodeResourceNotFoundException {
				return nil, fmt.Errorf("%v: %w", e, ErrNotFound)
			}
		}
		return nil, err
	}
	if output.Item == nil {
		return nil, fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	va, ok := output.Item["va"]
	if !ok || va == nil {
		return []byte{}, nil
	}
	return dup(va.B), nil
}

func ddbBinary(b []byte) *dynamodb.AttributeValue {
	return &dynamodb.AttributeValue{
		B: dup(b),
	}
}
