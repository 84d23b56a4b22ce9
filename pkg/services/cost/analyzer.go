// Package cost reports actual spend for the provisioned SQL estate.
package cost

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/de-tools/sql-atlas/pkg/models/domain"
)

const (
	serviceName = "Microsoft.Sql"
	displayName = "SQL Database"
)

// Analyzer produces usage and cost reports for a subscription's SQL resources.
type Analyzer interface {
	CollectUsage(ctx context.Context, days int) ([]domain.ResourceCost, error)
	GenerateReport(ctx context.Context, days int) (*domain.Report, error)
}

type analyzer struct {
	factory        *armcostmanagement.ClientFactory
	subscriptionID string
	scope          string
}

func NewSQLAnalyzer(factory *armcostmanagement.ClientFactory, subscriptionID string) Analyzer {
	return &analyzer{
		factory:        factory,
		subscriptionID: subscriptionID,
		scope:          fmt.Sprintf("/subscriptions/%s", subscriptionID),
	}
}

func (a *analyzer) CollectUsage(ctx context.Context, days int) ([]domain.ResourceCost, error) {
	client := a.factory.NewQueryClient()

	timeTo := time.Now()
	timeFrom := timeTo.AddDate(0, 0, -days)

	exportType := armcostmanagement.ExportTypeActualCost
	granularity := armcostmanagement.GranularityTypeDaily
	timeframe := armcostmanagement.TimeframeTypeCustom
	dimension := armcostmanagement.QueryColumnTypeDimension

	params := armcostmanagement.QueryDefinition{
		Type: &exportType,
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: &granularity,
			Grouping: []*armcostmanagement.QueryGrouping{
				{
					Name: to.Ptr("ResourceId"),
					Type: &dimension,
				},
			},
			Filter: &armcostmanagement.QueryFilter{
				Dimensions: &armcostmanagement.QueryComparisonExpression{
					Name:     to.Ptr("ServiceName"),
					Operator: to.Ptr(armcostmanagement.QueryOperatorTypeIn),
					Values:   []*string{to.Ptr(serviceName)},
				},
			},
		},
		Timeframe: &timeframe,
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: &timeFrom,
			To:   &timeTo,
		},
	}

	result, err := client.Usage(ctx, a.scope, params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query costs: %w", err)
	}

	var costs []domain.ResourceCost
	for _, row := range result.Properties.Rows {
		if len(row) < 4 {
			continue
		}

		amount, ok := row[0].(float64)
		if !ok {
			continue
		}

		costs = append(costs, domain.ResourceCost{
			StartTime: timeFrom,
			EndTime:   timeTo,
			Resource: domain.ResourceDef{
				Service:     serviceName,
				Name:        fmt.Sprintf("%v", row[2]),
				Description: fmt.Sprintf("Azure %s usage", displayName),
				Metadata: map[string]string{
					"SubscriptionID": a.subscriptionID,
				},
			},
			Costs: []domain.CostComponent{{
				Type:        "compute",
				Value:       amount,
				Unit:        "Units",
				TotalAmount: amount,
				Currency:    "USD",
				Description: fmt.Sprintf("%s resource usage", displayName),
			}},
		})
	}

	return costs, nil
}

func (a *analyzer) GenerateReport(ctx context.Context, days int) (*domain.Report, error) {
	costs, err := a.CollectUsage(ctx, days)
	if err != nil {
		return nil, err
	}

	var total float64
	details := make([]domain.ReportDetail, 0, len(costs))
	for _, cost := range costs {
		for _, component := range cost.Costs {
			total += component.TotalAmount
			details = append(details, domain.ReportDetail{
				Name:        cost.Resource.Name,
				Value:       component.TotalAmount,
				Unit:        "USD",
				Description: fmt.Sprintf("%s cost for %s", displayName, cost.Resource.Name),
			})
		}
	}

	return &domain.Report{
		Title: fmt.Sprintf("Azure %s Cost", displayName),
		Period: domain.TimePeriod{
			Start:    time.Now().AddDate(0, 0, -days),
			End:      time.Now(),
			Duration: days,
		},
		Sections: []domain.ReportSection{{
			Title:   fmt.Sprintf("%s Usage", displayName),
			Details: details,
			Summary: map[string]interface{}{
				"Total Cost": total,
			},
		}},
		TotalAmount: total,
		Currency:    "USD",
	}, nil
}
