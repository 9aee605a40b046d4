package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBAPI is the subset of the DynamoDB client the backend needs
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type dynamoItem struct {
	User    string         `dynamodbav:"username"`
	Scores  map[string]int `dynamodbav:"scores"`
	Mean    float64        `dynamodbav:"mean"`
	Version int            `dynamodbav:"version"`
}

// DynamoDBBackend stores one item per player. Commits are conditional on the
// version read, so a concurrent writer makes PutItem fail its condition.
type DynamoDBBackend struct {
	client DynamoDBAPI
	table  string
}

func NewDynamoDBBackend(client DynamoDBAPI, table string) *DynamoDBBackend {
	return &DynamoDBBackend{client: client, table: table}
}

func (b *DynamoDBBackend) key(user string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"username": &types.AttributeValueMemberS{Value: user},
	}
}

func (b *DynamoDBBackend) get(ctx context.Context, user string) (*dynamoItem, bool, error) {
	out, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(b.table),
		Key:            b.key(user),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("get leaderboard item: %w", err)
	}
	if len(out.Item) == 0 {
		return &dynamoItem{User: user}, false, nil
	}

	item := &dynamoItem{}
	if err := attributevalue.UnmarshalMap(out.Item, item); err != nil {
		return nil, false, fmt.Errorf("unmarshal leaderboard item: %w", err)
	}
	return item, true, nil
}

func (b *DynamoDBBackend) Transact(ctx context.Context, user string, fn TransactFunc) error {
	item, exists, err := b.get(ctx, user)
	if err != nil {
		return err
	}

	scores := cloneScores(item.Scores)
	w, err := fn(scores)
	if err != nil {
		return err
	}

	next := dynamoItem{
		User:    user,
		Scores:  cloneScores(item.Scores),
		Mean:    w.Mean,
		Version: item.Version + 1,
	}
	next.Scores[w.GameID] = w.Score

	av, err := attributevalue.MarshalMap(next)
	if err != nil {
		return fmt.Errorf("marshal leaderboard item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(b.table),
		Item:      av,
	}
	if exists {
		input.ConditionExpression = aws.String("#v = :v")
		input.ExpressionAttributeNames = map[string]string{"#v": "version"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: strconv.Itoa(item.Version)},
		}
	} else {
		input.ConditionExpression = aws.String("attribute_not_exists(#u)")
		input.ExpressionAttributeNames = map[string]string{"#u": "username"}
	}

	_, err = b.client.PutItem(ctx, input)
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("put leaderboard item: %w", err)
	}
	return nil
}

func (b *DynamoDBBackend) Scores(ctx context.Context, user string) (map[string]int, error) {
	item, _, err := b.get(ctx, user)
	if err != nil {
		return nil, err
	}
	return cloneScores(item.Scores), nil
}

// Top scans the whole table and ranks in memory.
func (b *DynamoDBBackend) Top(ctx context.Context, n int) ([]Entry, error) {
	var entries []Entry
	paginator := dynamodb.NewScanPaginator(b.client, &dynamodb.ScanInput{
		TableName:                aws.String(b.table),
		ProjectionExpression:     aws.String("#u, #m"),
		ExpressionAttributeNames: map[string]string{"#u": "username", "#m": "mean"},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		var items []dynamoItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal leaderboard items: %w", err)
		}
		for _, item := range items {
			entries = append(entries, Entry{User: item.User, Mean: item.Mean})
		}
	}
	return rank(entries, n), nil
}
