package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"riotlink/internal/riotapi"
	"riotlink/internal/roles"

	"gopkg.in/yaml.v3"
)

// RegionConfig is one region entry of the roles file. Empty hosts fall
// back to the built-in routes
type RegionConfig struct {
	Platform string `yaml:"platform"`
	Regional string `yaml:"regional"`
	RoleID   string `yaml:"role_id"`
}

// RoleFile is the guild specific part of the configuration: which role
// stands for which region and tier, and which channels host duo searches
type RoleFile struct {
	Regions     map[string]RegionConfig `yaml:"regions"`
	SoloRoles   map[string]string       `yaml:"solo_roles"`
	FlexRoles   map[string]string       `yaml:"flex_roles"`
	DuoChannels map[string]string       `yaml:"duo_channels"`
}

// LoadRoles reads and validates the roles file
func LoadRoles(filename string) (*RoleFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read roles file: %w", err)
	}
	return ParseRoles(data)
}

func ParseRoles(data []byte) (*RoleFile, error) {
	var file RoleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roles file: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

func (file *RoleFile) Validate() error {
	for name, region := range file.Regions {
		_, known := riotapi.DefaultRoutes[riotapi.Region(strings.ToUpper(name))]
		if !known && (region.Platform == "" || region.Regional == "") {
			return fmt.Errorf("region %s needs platform and regional hosts", name)
		}
	}
	tables := []struct {
		name  string
		tiers map[string]string
	}{{"solo_roles", file.SoloRoles}, {"flex_roles", file.FlexRoles}, {"duo_channels", file.DuoChannels}}
	for _, table := range tables {
		for key, value := range table.tiers {
			tier := value
			if table.name != "duo_channels" {
				tier = key
			}
			if !isTier(tier) {
				return fmt.Errorf("%s: unknown tier %s", table.name, tier)
			}
		}
	}
	return nil
}

func isTier(s string) bool {
	return slices.Contains(riotapi.Tiers, riotapi.Tier(strings.ToUpper(strings.TrimSpace(s))))
}

// Routes of the built-in regions, overridden by the file
func (file *RoleFile) Routes() riotapi.Routes {
	routes := maps.Clone(riotapi.DefaultRoutes)
	for name, region := range file.Regions {
		key := riotapi.Region(strings.ToUpper(name))
		route := routes[key]
		if region.Platform != "" {
			route.Platform = region.Platform
		}
		if region.Regional != "" {
			route.Regional = region.Regional
		}
		routes[key] = route
	}
	return routes
}

// Regions users can pick when linking, sorted. With no region in the file
// every built-in region is offered
func (file *RoleFile) RegionList() []riotapi.Region {
	var regions []riotapi.Region
	if len(file.Regions) == 0 {
		for region := range riotapi.DefaultRoutes {
			regions = append(regions, region)
		}
	} else {
		for name := range file.Regions {
			regions = append(regions, riotapi.Region(strings.ToUpper(name)))
		}
	}
	slices.Sort(regions)
	return regions
}

func (file *RoleFile) Table() roles.Table {
	table := roles.Table{
		Regions: make(map[riotapi.Region]string),
		Solo:    make(map[riotapi.Tier]string),
		Flex:    make(map[riotapi.Tier]string),
	}
	for name, region := range file.Regions {
		if region.RoleID != "" {
			table.Regions[riotapi.Region(strings.ToUpper(name))] = region.RoleID
		}
	}
	for tier, roleID := range file.SoloRoles {
		table.Solo[riotapi.ParseTier(tier)] = roleID
	}
	for tier, roleID := range file.FlexRoles {
		table.Flex[riotapi.ParseTier(tier)] = roleID
	}
	return table
}

// Tier served by each duo channel
func (file *RoleFile) Duo() map[string]riotapi.Tier {
	channels := make(map[string]riotapi.Tier, len(file.DuoChannels))
	for channelID, tier := range file.DuoChannels {
		channels[channelID] = riotapi.ParseTier(tier)
	}
	return channels
}
