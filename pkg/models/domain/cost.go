package domain

import "time"

type CostComponent struct {
	Type        string  // compute
	Value       float64 // usage quantity
	Unit        string  // Units
	TotalAmount float64 // billed amount
	Currency    string  // USD
	Description string
}

type ResourceDef struct {
	Service     string // Microsoft.Sql
	Name        string // server or database name
	Description string
	Metadata    map[string]string // SubscriptionID, Region
}

type ResourceCost struct {
	StartTime time.Time
	EndTime   time.Time
	Resource  ResourceDef
	Costs     []CostComponent
}
