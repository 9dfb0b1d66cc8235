package backend

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/ziadkadry99/chunkdoc/internal/cache"
)

// DynamoDB attribute names. The partition key is file_hash; ttl holds the
// expiry as epoch seconds so the table's native TTL can remove rows.
const (
	attrKey           = "file_hash"
	attrFilePath      = "file_path"
	attrDocumentation = "documentation"
	attrMetadata      = "metadata"
	attrCreatedAt     = "created_at"
	attrTTL           = "ttl"
	attrSource        = "source_code"
)

// DynamoAPI is the subset of the DynamoDB client used by Dynamo.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Dynamo stores cache entries in a DynamoDB table.
type Dynamo struct {
	client DynamoAPI
	table  string
}

// NewDynamo creates a store over the given table.
func NewDynamo(client DynamoAPI, table string) *Dynamo {
	return &Dynamo{client: client, table: table}
}

func (d *Dynamo) Name() string { return "dynamodb:" + d.table }

func (d *Dynamo) keyAttr(key cache.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrKey: &types.AttributeValueMemberS{Value: key.String()},
	}
}

func (d *Dynamo) Get(ctx context.Context, key cache.Key) (*cache.Entry, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.keyAttr(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, cache.ErrNotFound
	}
	e, err := entryFromItem(out.Item)
	if err != nil {
		return nil, fmt.Errorf("decoding item %s: %w", key.Short(), err)
	}
	return e, nil
}

func (d *Dynamo) Put(ctx context.Context, e *cache.Entry) error {
	item, err := itemFromEntry(e)
	if err != nil {
		return fmt.Errorf("encoding item: %w", err)
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("dynamodb put item: %w", err)
	}
	return nil
}

func (d *Dynamo) Delete(ctx context.Context, key cache.Key) error {
	if _, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       d.keyAttr(key),
	}); err != nil {
		return fmt.Errorf("dynamodb delete item: %w", err)
	}
	return nil
}

// Status reports the table status and DynamoDB's approximate item count,
// which the service refreshes about every six hours.
func (d *Dynamo) Status(ctx context.Context) (cache.StoreStatus, error) {
	out, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)})
	if err != nil {
		return cache.StoreStatus{}, fmt.Errorf("dynamodb describe table: %w", err)
	}
	st := cache.StoreStatus{Name: d.table}
	if out.Table != nil {
		st.Status = string(out.Table.TableStatus)
		st.ItemCount = aws.ToInt64(out.Table.ItemCount)
	}
	return st, nil
}

func itemFromEntry(e *cache.Entry) (map[string]types.AttributeValue, error) {
	meta, err := attrFromValue(map[string]any(e.Metadata))
	if err != nil {
		return nil, err
	}
	item := map[string]types.AttributeValue{
		attrKey:           &types.AttributeValueMemberS{Value: e.Key.String()},
		attrFilePath:      &types.AttributeValueMemberS{Value: e.FilePath},
		attrDocumentation: &types.AttributeValueMemberS{Value: e.Documentation},
		attrMetadata:      meta,
		attrCreatedAt:     &types.AttributeValueMemberS{Value: e.CreatedAt.UTC().Format(time.RFC3339Nano)},
		attrTTL:           &types.AttributeValueMemberN{Value: strconv.FormatInt(e.ExpiresAt.Unix(), 10)},
	}
	if e.Source != nil {
		item[attrSource] = &types.AttributeValueMemberS{Value: *e.Source}
	}
	return item, nil
}

func entryFromItem(item map[string]types.AttributeValue) (*cache.Entry, error) {
	e := &cache.Entry{
		Key:           cache.Key(stringAttr(item, attrKey)),
		FilePath:      stringAttr(item, attrFilePath),
		Documentation: stringAttr(item, attrDocumentation),
		Metadata:      cache.Metadata{},
	}
	if raw, ok := item[attrMetadata]; ok {
		v, err := valueFromAttr(raw)
		if err != nil {
			return nil, err
		}
		if m, ok := v.(map[string]any); ok {
			e.Metadata = cache.Metadata(m)
		}
	}
	if s := stringAttr(item, attrCreatedAt); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		e.CreatedAt = t
	}
	if n, ok := item[attrTTL].(*types.AttributeValueMemberN); ok {
		secs, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing ttl: %w", err)
		}
		e.ExpiresAt = time.Unix(secs, 0).UTC()
	}
	if s, ok := item[attrSource].(*types.AttributeValueMemberS); ok {
		src := s.Value
		e.Source = &src
	}
	return e, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func attrFromValue(v any) (types.AttributeValue, error) {
	switch x := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case string:
		return &types.AttributeValueMemberS{Value: x}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: x}, nil
	case decimal.Decimal:
		return &types.AttributeValueMemberN{Value: x.String()}, nil
	case cache.Metadata:
		return attrFromValue(map[string]any(x))
	case map[string]any:
		m := make(map[string]types.AttributeValue, len(x))
		for k, e := range x {
			av, err := attrFromValue(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case []any:
		l := make([]types.AttributeValue, len(x))
		for i, e := range x {
			av, err := attrFromValue(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	default:
		return nil, fmt.Errorf("unsupported metadata type %T", v)
	}
}

func valueFromAttr(av types.AttributeValue) (any, error) {
	switch x := av.(type) {
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberS:
		return x.Value, nil
	case *types.AttributeValueMemberBOOL:
		return x.Value, nil
	case *types.AttributeValueMemberN:
		d, err := decimal.NewFromString(x.Value)
		if err != nil {
			return nil, err
		}
		return d, nil
	case *types.AttributeValueMemberM:
		m := make(map[string]any, len(x.Value))
		for k, e := range x.Value {
			v, err := valueFromAttr(e)
			if err != nil {
				return nil, err
			}
			m[k] = v
		}
		return m, nil
	case *types.AttributeValueMemberL:
		l := make([]any, len(x.Value))
		for i, e := range x.Value {
			v, err := valueFromAttr(e)
			if err != nil {
				return nil, err
			}
			l[i] = v
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type %T", av)
	}
}
