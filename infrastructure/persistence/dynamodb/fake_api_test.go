package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeAPI is an in-memory stand-in for the slice of DynamoDB the repository
// uses. It understands the ADD/SET update expressions and single equality key
// conditions produced by the expression builder.
type fakeAPI struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	// pageSize > 0 splits base-table queries and scans into pages
	pageSize int
	// maxBatch > 0 leaves keys beyond this count unprocessed in each batch get
	maxBatch int
	// failures keyed by operation name
	failures map[string]error

	batchSizes []int
	calls      map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		items:    make(map[string]map[string]types.AttributeValue),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

var _ API = (*fakeAPI)(nil)

func itemKey(item map[string]types.AttributeValue) string {
	return str(item["articleId"]) + "\x00" + str(item["theme"])
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func num(av types.AttributeValue) int64 {
	if n, ok := av.(*types.AttributeValueMemberN); ok {
		v, _ := strconv.ParseInt(n.Value, 10, 64)
		return v
	}
	return 0
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func (f *fakeAPI) record(op string) error {
	f.calls[op]++
	return f.failures[op]
}

func (f *fakeAPI) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DescribeTable"); err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   params.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeAPI) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateTable"); err != nil {
		return nil, err
	}
	return &dynamodb.CreateTableOutput{TableDescription: &types.TableDescription{
		TableName:   params.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeAPI) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateItem"); err != nil {
		return nil, err
	}

	key := itemKey(params.Key)
	item, ok := f.items[key]
	if !ok {
		item = copyItem(params.Key)
	}

	tokens := strings.Fields(aws.ToString(params.UpdateExpression))
	mode := ""
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok {
		case "ADD", "SET":
			mode = tok
			continue
		}
		name := params.ExpressionAttributeNames[strings.TrimSuffix(tok, ",")]
		switch mode {
		case "ADD":
			i++
			value := params.ExpressionAttributeValues[strings.TrimSuffix(tokens[i], ",")]
			item[name] = &types.AttributeValueMemberN{Value: strconv.FormatInt(num(item[name])+num(value), 10)}
		case "SET":
			i += 2 // skip "="
			item[name] = params.ExpressionAttributeValues[strings.TrimSuffix(tokens[i], ",")]
		default:
			return nil, fmt.Errorf("unexpected token %q in update expression", tok)
		}
	}

	f.items[key] = item
	out := &dynamodb.UpdateItemOutput{}
	if params.ReturnValues == types.ReturnValueAllNew {
		out.Attributes = copyItem(item)
	}
	return out, nil
}

// keyCondition resolves "#n = :v" into attribute name and string value.
func keyCondition(expr string, names map[string]string, values map[string]types.AttributeValue) (string, string, error) {
	expr = strings.NewReplacer("(", "", ")", "").Replace(expr)
	parts := strings.Fields(expr)
	if len(parts) != 3 || parts[1] != "=" {
		return "", "", fmt.Errorf("unsupported key condition %q", expr)
	}
	return names[parts[0]], str(values[parts[2]]), nil
}

func (f *fakeAPI) sortedItems() []map[string]types.AttributeValue {
	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, copyItem(f.items[k]))
	}
	return out
}

// page slices items after startKey, honouring limit and the fake page size.
func (f *fakeAPI) page(items []map[string]types.AttributeValue, startKey map[string]types.AttributeValue, limit *int32) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	start := 0
	if startKey != nil {
		marker := itemKey(startKey)
		for i, item := range items {
			if itemKey(item) == marker {
				start = i + 1
				break
			}
		}
	}
	items = items[start:]

	size := len(items)
	if f.pageSize > 0 && f.pageSize < size {
		size = f.pageSize
	}
	if limit != nil && int(*limit) < size {
		size = int(*limit)
	}

	var last map[string]types.AttributeValue
	if size < len(items) {
		last = map[string]types.AttributeValue{
			"articleId": items[size-1]["articleId"],
			"theme":     items[size-1]["theme"],
		}
	}
	return items[:size], last
}

func (f *fakeAPI) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	op := "Query"
	if params.IndexName != nil {
		op = "QueryIndex"
	}
	if err := f.record(op); err != nil {
		return nil, err
	}

	attr, value, err := keyCondition(aws.ToString(params.KeyConditionExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}

	var matched []map[string]types.AttributeValue
	for _, item := range f.sortedItems() {
		if str(item[attr]) == value {
			matched = append(matched, item)
		}
	}

	if params.IndexName == nil {
		items, last := f.page(matched, params.ExclusiveStartKey, params.Limit)
		return &dynamodb.QueryOutput{Items: items, Count: int32(len(items)), LastEvaluatedKey: last}, nil
	}

	forward := params.ScanIndexForward == nil || *params.ScanIndexForward
	sort.SliceStable(matched, func(i, j int) bool {
		if forward {
			return num(matched[i]["interactionCount"]) < num(matched[j]["interactionCount"])
		}
		return num(matched[i]["interactionCount"]) > num(matched[j]["interactionCount"])
	})
	if params.Limit != nil && int(*params.Limit) < len(matched) {
		matched = matched[:*params.Limit]
	}

	projected := make([]map[string]types.AttributeValue, 0, len(matched))
	for _, item := range matched {
		projected = append(projected, map[string]types.AttributeValue{
			"articleId":        item["articleId"],
			"theme":            item["theme"],
			"interactionCount": item["interactionCount"],
		})
	}
	return &dynamodb.QueryOutput{Items: projected, Count: int32(len(projected))}, nil
}

func (f *fakeAPI) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("BatchGetItem"); err != nil {
		return nil, err
	}

	out := &dynamodb.BatchGetItemOutput{
		Responses:       map[string][]map[string]types.AttributeValue{},
		UnprocessedKeys: map[string]types.KeysAndAttributes{},
	}
	for table, req := range params.RequestItems {
		f.batchSizes = append(f.batchSizes, len(req.Keys))
		if len(req.Keys) > 100 {
			return nil, fmt.Errorf("too many items requested for the BatchGetItem call")
		}

		var found []map[string]types.AttributeValue
		var pending []map[string]types.AttributeValue
		for i, key := range req.Keys {
			if f.maxBatch > 0 && i >= f.maxBatch {
				pending = append(pending, key)
				continue
			}
			if item, ok := f.items[itemKey(key)]; ok {
				found = append(found, copyItem(item))
			}
		}
		out.Responses[table] = found
		if len(pending) > 0 {
			out.UnprocessedKeys[table] = types.KeysAndAttributes{Keys: pending}
		}
		if params.ReturnConsumedCapacity == types.ReturnConsumedCapacityTotal {
			out.ConsumedCapacity = append(out.ConsumedCapacity, types.ConsumedCapacity{
				TableName:     aws.String(table),
				CapacityUnits: aws.Float64(0.5 * float64(len(req.Keys)-len(pending))),
			})
		}
	}
	return out, nil
}

func (f *fakeAPI) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Scan"); err != nil {
		return nil, err
	}

	items, last := f.page(f.sortedItems(), params.ExclusiveStartKey, params.Limit)
	return &dynamodb.ScanOutput{Items: items, Count: int32(len(items)), LastEvaluatedKey: last}, nil
}
