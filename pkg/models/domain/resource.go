package domain

import "fmt"

// Location is an Azure region. Deployments are pinned to the two regions the
// platform operates in.
type Location string

const (
	LocationNorthEurope Location = "northeurope"
	LocationWestEurope  Location = "westeurope"
)

// ParseLocation validates a region name against the allowed set.
func ParseLocation(s string) (Location, error) {
	switch Location(s) {
	case LocationNorthEurope, LocationWestEurope:
		return Location(s), nil
	default:
		return "", fmt.Errorf("unsupported location %q (allowed: %s, %s)",
			s, LocationNorthEurope, LocationWestEurope)
	}
}

// ResourceIdentity identifies a server-class resource. Name must be globally
// unique across the provider namespace; collisions are detected before any
// creation attempt.
type ResourceIdentity struct {
	Name          string
	ResourceGroup string
	Location      Location
}

// FQDN returns the public DNS name the server is addressable under once it
// exists anywhere in the provider namespace.
func (r ResourceIdentity) FQDN() string {
	return r.Name + ".database.windows.net"
}

func (r ResourceIdentity) String() string {
	return fmt.Sprintf("%s/%s", r.ResourceGroup, r.Name)
}

// ServerHandle is the observed state of an existing SQL server.
type ServerHandle struct {
	ID   string
	Name string
	FQDN string
}

// DatabaseEdition enumerates the editions accepted by the provider.
type DatabaseEdition string

const (
	EditionDefault       DatabaseEdition = "Default"
	EditionNone          DatabaseEdition = "None"
	EditionPremium       DatabaseEdition = "Premium"
	EditionBasic         DatabaseEdition = "Basic"
	EditionStandard      DatabaseEdition = "Standard"
	EditionDataWarehouse DatabaseEdition = "DataWarehouse"
	EditionFree          DatabaseEdition = "Free"
)

// ParseEdition validates an edition name against the allowed set.
func ParseEdition(s string) (DatabaseEdition, error) {
	switch DatabaseEdition(s) {
	case EditionDefault, EditionNone, EditionPremium, EditionBasic,
		EditionStandard, EditionDataWarehouse, EditionFree:
		return DatabaseEdition(s), nil
	default:
		return "", fmt.Errorf("unsupported database edition %q", s)
	}
}

// DatabaseSpec describes a database to create on a server. Databases are
// created if absent and never updated by the provisioning flow.
type DatabaseSpec struct {
	Name             string
	Edition          DatabaseEdition
	ServiceObjective string
}
