package gateway

import (
	"context"
	"fmt"

	"awsmcp/internal/translate"
	"awsmcp/pkg/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TenantAttribute is the item attribute holding the tenant code.
const TenantAttribute = "tenant"

// QueryDocumentStore scans table. Count requests sum the count over every
// scan page; other requests return up to 100 items. A non-empty tenant
// restricts both to items whose tenant attribute equals it.
func (g *Gateway) QueryDocumentStore(ctx context.Context, table, text, tenant string) DocumentResult {
	result := DocumentResult{Table: table, Text: text}

	fail := func(err error) DocumentResult {
		logging.Error("Gateway", err, "DynamoDB query on %s failed", table)
		result.Status = StatusError
		result.Err = err
		return result
	}

	if g.documents == nil {
		return fail(newError(KindConfigurationMissing, "dynamodb query", fmt.Errorf("%w: DynamoDB client", ErrConfigurationMissing)))
	}

	input, err := scanInput(table, tenant)
	if err != nil {
		return fail(newError(KindInvalidArgument, "build filter", err))
	}

	if translate.IsCountQuery(text) {
		count, err := g.countItems(ctx, input)
		if err != nil {
			return fail(err)
		}
		result.Status = StatusSuccess
		result.CountOnly = true
		result.Count = count
		return result
	}

	input.Limit = aws.Int32(defaultScanLimit)
	out, err := g.documents.Scan(ctx, input)
	if err != nil {
		return fail(newError(KindBackendFailure, "scan", err))
	}

	var items []map[string]interface{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return fail(newError(KindBackendFailure, "decode items", err))
	}

	result.Status = StatusSuccess
	result.Data = items
	result.Count = len(items)
	return result
}

func (g *Gateway) countItems(ctx context.Context, input *dynamodb.ScanInput) (int, error) {
	input.Select = types.SelectCount

	total := 0
	paginator := dynamodb.NewScanPaginator(g.documents, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, newError(KindBackendFailure, "count scan", err)
		}
		total += int(page.Count)
	}
	return total, nil
}

func scanInput(table, tenant string) (*dynamodb.ScanInput, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(table)}
	if tenant == "" {
		return input, nil
	}

	expr, err := expression.NewBuilder().
		WithFilter(expression.Name(TenantAttribute).Equal(expression.Value(tenant))).
		Build()
	if err != nil {
		return nil, err
	}
	input.FilterExpression = expr.Filter()
	input.ExpressionAttributeNames = expr.Names()
	input.ExpressionAttributeValues = expr.Values()
	return input, nil
}
