package s3types

import "strings"

// Region is a user-facing AWS region name.
type Region string

// Supported regions.
const (
	RegionEuWest1      Region = "EuWest1"
	RegionEuWest2      Region = "EuWest2"
	RegionEuCentral1   Region = "EuCentral1"
	RegionApNortheast1 Region = "ApNortheast1"
	RegionApNortheast2 Region = "ApNortheast2"
	RegionApSouth1     Region = "ApSouth1"
	RegionApSoutheast1 Region = "ApSoutheast1"
	RegionApSoutheast2 Region = "ApSoutheast2"
	RegionCaCentral1   Region = "CaCentral1"
	RegionCnNorth1     Region = "CnNorth1"
	RegionSaEast1      Region = "SaEast1"
	RegionUsEast1      Region = "UsEast1"
	RegionUsEast2      Region = "UsEast2"
	RegionUsWest1      Region = "UsWest1"
	RegionUsWest2      Region = "UsWest2"
)

// DefaultRegionCode is used for unknown or empty regions.
const DefaultRegionCode = "eu-west-1"

var regionCodes = map[Region]string{
	RegionEuWest1:      "eu-west-1",
	RegionEuWest2:      "eu-west-2",
	RegionEuCentral1:   "eu-central-1",
	RegionApNortheast1: "ap-northeast-1",
	RegionApNortheast2: "ap-northeast-2",
	RegionApSouth1:     "ap-south-1",
	RegionApSoutheast1: "ap-southeast-1",
	RegionApSoutheast2: "ap-southeast-2",
	RegionCaCentral1:   "ca-central-1",
	RegionCnNorth1:     "cn-north-1",
	RegionSaEast1:      "sa-east-1",
	RegionUsEast1:      "us-east-1",
	RegionUsEast2:      "us-east-2",
	RegionUsWest1:      "us-west-1",
	RegionUsWest2:      "us-west-2",
}

// Code returns the SDK region code, falling back to DefaultRegionCode.
func (r Region) Code() string {
	if code, ok := regionCodes[r]; ok {
		return code
	}
	return DefaultRegionCode
}

// ParseRegion resolves an enum name or region code, case-insensitively.
// The second return value is false when s names no supported region.
func ParseRegion(s string) (Region, bool) {
	s = strings.TrimSpace(s)
	for region, code := range regionCodes {
		if strings.EqualFold(string(region), s) || strings.EqualFold(code, s) {
			return region, true
		}
	}
	return RegionEuWest1, false
}
