// Package intel answers business, social and caller-id lookups.
//
// The lookups are simulated; results are derived from the query so that
// callers and formatters see realistic shapes.
package intel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultLocation is used when a place search has no location.
const DefaultLocation = "37.7749,-122.4194"

// Place is a business near a location.
type Place struct {
	Name     string             `json:"name"`
	Address  string             `json:"address"`
	Types    []string           `json:"types"`
	Location map[string]float64 `json:"location"`
	Rating   float64            `json:"rating,omitempty"`
	PlaceID  string             `json:"place_id"`
}

// Profile is a social identity match.
type Profile struct {
	Platform  string `json:"platform"`
	Username  string `json:"username"`
	URL       string `json:"url"`
	Followers int    `json:"followers"`
}

// CallerID is a phone-number lookup result.
type CallerID struct {
	Number   string  `json:"number"`
	Name     string  `json:"name"`
	Carrier  string  `json:"carrier"`
	Score    float64 `json:"score"`
	SpamType *string `json:"spam_type"`
}

// Service performs the lookups.
type Service struct{}

func NewService() *Service { return &Service{} }

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New(field + " is required")
	}
	return nil
}

// SearchNearbyBusiness finds businesses matching keyword near location ("lat,lng").
func (s *Service) SearchNearbyBusiness(ctx context.Context, keyword, location string) ([]Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := required("keyword", keyword); err != nil {
		return nil, err
	}
	if location == "" {
		location = DefaultLocation
	}
	return []Place{
		{
			Name:     keyword + " Center One",
			Address:  "123 Market St",
			Types:    []string{"establishment", "point_of_interest"},
			Location: map[string]float64{"lat": 37.775, "lng": -122.418},
			Rating:   4.5,
			PlaceID:  "place_123",
		},
		{
			Name:     keyword + " Global Hub",
			Address:  "456 Mission St",
			Types:    []string{"establishment", "non_profit"},
			Location: map[string]float64{"lat": 37.779, "lng": -122.420},
			Rating:   4.8,
			PlaceID:  "place_456",
		},
	}, nil
}

// SearchSocialIdentity looks query up across social platforms and web search.
func (s *Service) SearchSocialIdentity(ctx context.Context, query string) ([]Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := required("query", query); err != nil {
		return nil, err
	}
	handle := strings.ToLower(strings.ReplaceAll(query, " ", ""))
	return []Profile{
		{Platform: "instagram", Username: handle, URL: "https://instagram.com/" + handle, Followers: 1250},
		{Platform: "facebook", Username: query, URL: "https://facebook.com/" + strings.ReplaceAll(query, " ", "."), Followers: 300},
		{Platform: "yahoo_search", Username: "N/A", URL: "https://yahoo.com/search?p=" + url.QueryEscape(query)},
	}, nil
}

// LookupPhone returns caller-id information for number.
func (s *Service) LookupPhone(ctx context.Context, number string) (CallerID, error) {
	if err := ctx.Err(); err != nil {
		return CallerID{}, err
	}
	if err := required("phone number", number); err != nil {
		return CallerID{}, err
	}
	return CallerID{
		Number:  number,
		Name:    "John Doe (Mock)",
		Carrier: "Jio/Airtel",
		Score:   0.95,
	}, nil
}

// PlaceNames returns the names of places in order.
func PlaceNames(places []Place) []string {
	out := make([]string, len(places))
	for i, p := range places {
		out[i] = p.Name
	}
	return out
}

// ProfileLabels returns "platform: username" labels in order.
func ProfileLabels(profiles []Profile) []string {
	out := make([]string, len(profiles))
	for i, p := range profiles {
		out[i] = fmt.Sprintf("%s: %s", p.Platform, p.Username)
	}
	return out
}
