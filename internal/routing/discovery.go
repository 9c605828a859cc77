package routing

import (
	"github.com/futurehomeno/cliffhanger/discovery"
)

// GetDiscoveryResource returns a service discovery configuration.
func GetDiscoveryResource() *discovery.Resource {
	return &discovery.Resource{
		ResourceName:           ResourceName,
		ResourceType:           discovery.ResourceTypeAd,
		ResourceFullName:       "NIU",
		Description:            "Electric scooters from NIU",
		Author:                 "support@futurehome.no",
		IsInstanceConfigurable: false,
		Version:                "1",
		InstanceID:             "1",
		AdapterInfo: discovery.AdapterInfo{
			Technology:            "niu",
			FwVersion:             "all",
			NetworkManagementType: "inclusion_exclusion",
		},
	}
}
