package internal

import (
	"fmt"
	"strings"
)

// ProviderGroup is the category of a payment method button.
type ProviderGroup string

const (
	GroupMobile ProviderGroup = "mobile"
	GroupBank   ProviderGroup = "bank"
	GroupCard   ProviderGroup = "card"
	GroupLoaner ProviderGroup = "loaner"
	GroupOther  ProviderGroup = "other"
)

// providerGroups lists known provider names per group, lowercase.
var providerGroups = []struct {
	group     ProviderGroup
	providers []string
}{
	{GroupMobile, []string{"mobilepay", "masterpass", "pivo"}},
	{GroupBank, []string{
		"saastopankki", "säästöpankki", "osuuspankki", "op", "nordea", "s-pankki", "spankki",
		"danske bank", "handelsbanken", "pop-pankki", "poppankki", "aktia", "sp/omasp", "omasp", "sp",
		"ålandsbanken",
	}},
	{GroupCard, []string{"visa", "mastercard", "visa electron", "visaelectron"}},
	{GroupLoaner, []string{"euroloan", "collector"}},
}

var providerIndex map[string]ProviderGroup

func init() {
	index, err := buildProviderIndex()
	if err != nil {
		panic(err)
	}
	providerIndex = index
}

func buildProviderIndex() (map[string]ProviderGroup, error) {
	index := make(map[string]ProviderGroup)
	for _, entry := range providerGroups {
		for _, provider := range entry.providers {
			name := normalizeProvider(provider)
			if existing, ok := index[name]; ok {
				return nil, fmt.Errorf("provider %q listed in groups %s and %s", name, existing, entry.group)
			}
			index[name] = entry.group
		}
	}
	return index, nil
}

func normalizeProvider(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SelectGroup classifies a provider by name; unknown providers fall into GroupOther.
func SelectGroup(providerName string) ProviderGroup {
	if group, ok := providerIndex[normalizeProvider(providerName)]; ok {
		return group
	}
	return GroupOther
}
