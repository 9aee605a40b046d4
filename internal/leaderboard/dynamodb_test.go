package leaderboard

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamoDB keeps items in memory and honours the two condition
// expressions the backend issues.
type fakeDynamoDB struct {
	mu     sync.Mutex
	items  map[string]map[string]types.AttributeValue
	onGet  func()
	scans  int
	pageSz int
}

func newFakeDynamoDB() *fakeDynamoDB {
	return &fakeDynamoDB{items: make(map[string]map[string]types.AttributeValue), pageSz: 1}
}

func keyOf(item map[string]types.AttributeValue) string {
	return item["username"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	item := f.items[keyOf(params.Key)]
	hook := f.onGet
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := keyOf(params.Item)
	existing, exists := f.items[key]
	switch aws.ToString(params.ConditionExpression) {
	case "attribute_not_exists(#u)":
		if exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	case "#v = :v":
		want := params.ExpressionAttributeValues[":v"].(*types.AttributeValueMemberN).Value
		if !exists || existing["version"].(*types.AttributeValueMemberN).Value != want {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("version")}
		}
	}
	f.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++

	var keys []string
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if params.ExclusiveStartKey != nil {
		last := keyOf(params.ExclusiveStartKey)
		for start < len(keys) && keys[start] <= last {
			start++
		}
	}
	end := start + f.pageSz
	if end > len(keys) {
		end = len(keys)
	}

	out := &dynamodb.ScanOutput{}
	for _, k := range keys[start:end] {
		out.Items = append(out.Items, f.items[k])
	}
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"username": &types.AttributeValueMemberS{Value: keys[end-1]}}
	}
	return out, nil
}

func TestDynamoDBBackend(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamoDB()
	store := newTestStore(NewDynamoDBBackend(fake, "wordle_leaderboard"), 0)

	_, err := store.ReportResult(ctx, "alice", "g1", true, 1)
	require.NoError(t, err)
	mean, err := store.ReportResult(ctx, "alice", "g2", false, 6)
	require.NoError(t, err)
	assert.Equal(t, 3.0, mean)
	_, err = store.ReportResult(ctx, "bob", "g3", true, 3)
	require.NoError(t, err)
	_, err = store.ReportResult(ctx, "carol", "g4", true, 3)
	require.NoError(t, err)

	scores, err := store.Scores(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"g1": 6, "g2": 0}, scores)

	top, err := store.Top(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{User: "bob", Mean: 4}, {User: "carol", Mean: 4}}, top)
	assert.Equal(t, 3, fake.scans)
}

func TestDynamoDBBackendConflict(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamoDB()
	backend := NewDynamoDBBackend(fake, "wordle_leaderboard")
	require.NoError(t, backend.Transact(ctx, "alice", func(map[string]int) (Write, error) {
		return Write{GameID: "g1", Score: 6, Mean: 6}, nil
	}))

	interfered := false
	fake.onGet = func() {
		if interfered {
			return
		}
		interfered = true
		fake.onGet = nil
		require.NoError(t, backend.Transact(ctx, "alice", func(scores map[string]int) (Write, error) {
			return Write{GameID: "g2", Score: 2, Mean: 4}, nil
		}))
	}

	err := backend.Transact(ctx, "alice", func(map[string]int) (Write, error) {
		return Write{GameID: "g3", Score: 0, Mean: 2}, nil
	})
	assert.ErrorIs(t, err, ErrConflict)

	scores, err := backend.Scores(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"g1": 6, "g2": 2}, scores)

	t.Run("new item race", func(t *testing.T) {
		fake.onGet = func() {
			fake.onGet = nil
			require.NoError(t, backend.Transact(ctx, "dave", func(map[string]int) (Write, error) {
				return Write{GameID: "g9", Score: 1, Mean: 1}, nil
			}))
		}
		err := backend.Transact(ctx, "dave", func(map[string]int) (Write, error) {
			return Write{GameID: "g8", Score: 6, Mean: 6}, nil
		})
		assert.ErrorIs(t, err, ErrConflict)
	})
}
