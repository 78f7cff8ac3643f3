package schema

import (
	"fmt"

	"article-interactions/domain/interaction"
	apperrors "article-interactions/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// KeyAttribute is a key attribute and its scalar type. Index keys that reuse
// a table key attribute may leave Type empty.
type KeyAttribute struct {
	Name string
	Type types.ScalarAttributeType
}

// IndexDefinition describes a global secondary index.
type IndexDefinition struct {
	Name             string
	PartitionKey     KeyAttribute
	SortKey          *KeyAttribute
	Projection       types.ProjectionType
	NonKeyAttributes []string
}

// TableDefinition is the desired shape of a table. Zero capacities select
// on-demand billing.
type TableDefinition struct {
	Name          string
	PartitionKey  KeyAttribute
	SortKey       *KeyAttribute
	GlobalIndexes []IndexDefinition
	ReadCapacity  int64
	WriteCapacity int64
}

// ArticleInteractionTable returns the definition of the interaction table:
// (articleId, theme) primary key plus a KEYS_ONLY index ranking an article's
// themes by interactionCount.
func ArticleInteractionTable(tableName, indexName string, readCapacity, writeCapacity int64) TableDefinition {
	return TableDefinition{
		Name:         tableName,
		PartitionKey: KeyAttribute{Name: interaction.AttrArticleID, Type: types.ScalarAttributeTypeS},
		SortKey:      &KeyAttribute{Name: interaction.AttrTheme, Type: types.ScalarAttributeTypeS},
		GlobalIndexes: []IndexDefinition{
			{
				Name:         indexName,
				PartitionKey: KeyAttribute{Name: interaction.AttrArticleID},
				SortKey:      &KeyAttribute{Name: interaction.AttrInteractionCount, Type: types.ScalarAttributeTypeN},
				Projection:   types.ProjectionTypeKeysOnly,
			},
		},
		ReadCapacity:  readCapacity,
		WriteCapacity: writeCapacity,
	}
}

// Validate checks the definition without touching the store.
func (d TableDefinition) Validate() error {
	if d.Name == "" {
		return apperrors.NewValidationError("table name is required")
	}
	if d.PartitionKey.Name == "" {
		return apperrors.NewValidationError(fmt.Sprintf("table '%s' has no partition key", d.Name))
	}
	if d.ReadCapacity < 0 || d.WriteCapacity < 0 {
		return apperrors.NewValidationError("capacity must not be negative")
	}
	if (d.ReadCapacity == 0) != (d.WriteCapacity == 0) {
		return apperrors.NewValidationError("read and write capacity must both be set or both be zero")
	}
	_, err := d.attributeDefinitions()
	return err
}

// attributeDefinitions collects every key attribute once. An attribute used
// with two different types, or never given a type, is rejected.
func (d TableDefinition) attributeDefinitions() ([]types.AttributeDefinition, error) {
	typed := make(map[string]types.ScalarAttributeType)
	var order []string

	declare := func(owner string, attr KeyAttribute) error {
		if attr.Name == "" {
			return apperrors.NewValidationError(fmt.Sprintf("%s has a key attribute without a name", owner))
		}
		existing, seen := typed[attr.Name]
		if !seen {
			order = append(order, attr.Name)
		}
		switch {
		case attr.Type == "":
			if !seen {
				typed[attr.Name] = ""
			}
		case existing != "" && existing != attr.Type:
			return apperrors.NewValidationError(fmt.Sprintf(
				"attribute '%s' declared as both %s and %s", attr.Name, existing, attr.Type))
		default:
			typed[attr.Name] = attr.Type
		}
		return nil
	}

	keys := []KeyAttribute{d.PartitionKey}
	if d.SortKey != nil {
		keys = append(keys, *d.SortKey)
	}
	for _, k := range keys {
		if err := declare("table '"+d.Name+"'", k); err != nil {
			return nil, err
		}
	}
	for _, idx := range d.GlobalIndexes {
		if idx.Name == "" {
			return nil, apperrors.NewValidationError("index name is required")
		}
		owner := "index '" + idx.Name + "'"
		if err := declare(owner, idx.PartitionKey); err != nil {
			return nil, err
		}
		if idx.SortKey != nil {
			if err := declare(owner, *idx.SortKey); err != nil {
				return nil, err
			}
		}
	}

	defs := make([]types.AttributeDefinition, 0, len(order))
	for _, name := range order {
		if typed[name] == "" {
			return nil, apperrors.NewValidationError(fmt.Sprintf("key attribute '%s' has no type", name))
		}
		defs = append(defs, types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: typed[name],
		})
	}
	return defs, nil
}

func keySchema(partition KeyAttribute, sort *KeyAttribute) []types.KeySchemaElement {
	schema := []types.KeySchemaElement{
		{AttributeName: aws.String(partition.Name), KeyType: types.KeyTypeHash},
	}
	if sort != nil {
		schema = append(schema, types.KeySchemaElement{AttributeName: aws.String(sort.Name), KeyType: types.KeyTypeRange})
	}
	return schema
}

// createTableInput renders the definition as a CreateTable request.
func (d TableDefinition) createTableInput() (*dynamodb.CreateTableInput, error) {
	attrs, err := d.attributeDefinitions()
	if err != nil {
		return nil, err
	}

	input := &dynamodb.CreateTableInput{
		TableName:            aws.String(d.Name),
		AttributeDefinitions: attrs,
		KeySchema:            keySchema(d.PartitionKey, d.SortKey),
	}

	var throughput *types.ProvisionedThroughput
	if d.ReadCapacity > 0 {
		throughput = &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(d.ReadCapacity),
			WriteCapacityUnits: aws.Int64(d.WriteCapacity),
		}
		input.BillingMode = types.BillingModeProvisioned
		input.ProvisionedThroughput = throughput
	} else {
		input.BillingMode = types.BillingModePayPerRequest
	}

	for _, idx := range d.GlobalIndexes {
		projection := idx.Projection
		if projection == "" {
			projection = types.ProjectionTypeKeysOnly
		}
		gsi := types.GlobalSecondaryIndex{
			IndexName: aws.String(idx.Name),
			KeySchema: keySchema(idx.PartitionKey, idx.SortKey),
			Projection: &types.Projection{
				ProjectionType: projection,
			},
			ProvisionedThroughput: throughput,
		}
		if projection == types.ProjectionTypeInclude {
			gsi.Projection.NonKeyAttributes = idx.NonKeyAttributes
		}
		input.GlobalSecondaryIndexes = append(input.GlobalSecondaryIndexes, gsi)
	}

	return input, nil
}
