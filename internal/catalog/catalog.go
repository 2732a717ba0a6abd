// Package catalog holds the care services offered and their hourly rates.
// Both the client (for quoting) and the server (for authoritative pricing)
// read from it.
package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// Currency is the ISO code all prices are expressed in.
const Currency = "BDT"

var (
	// ErrUnknownService is returned for an id that is not in the catalogue.
	ErrUnknownService = errors.New("unknown service")
	// ErrInvalidDuration is returned for a booking shorter than one hour.
	ErrInvalidDuration = errors.New("duration must be at least one hour")
)

// Service describes one bookable care service.
type Service struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	PricePerHour int64    `json:"price"`
	Features     []string `json:"features"`
}

var services = map[string]Service{
	"baby-care": {
		ID:           "baby-care",
		Name:         "Baby Care",
		Description:  "Experienced babysitters providing a safe and nurturing environment for your children. Full-time, part-time and occasional babysitting.",
		PricePerHour: 500,
		Features:     []string{"Certified Babysitters", "Safe Environment", "Interactive Play", "Emergency Trained"},
	},
	"elderly-care": {
		ID:           "elderly-care",
		Name:         "Elderly Care",
		Description:  "Compassionate care for seniors: assistance with daily activities, medication reminders and companionship.",
		PricePerHour: 600,
		Features:     []string{"Medical Assistance", "Companionship", "Daily Chores Help", "24/7 Availability"},
	},
	"special-care": {
		ID:           "special-care",
		Name:         "Sick / Special Care",
		Description:  "Specialized care for sick family members or those with distinct needs, including medical equipment handling.",
		PricePerHour: 800,
		Features:     []string{"Specialized Training", "Medical Equipment Support", "Patient Monitoring", "Rehabilitation Support"},
	},
}

// Lookup returns the service registered under id.
func Lookup(id string) (Service, bool) {
	s, ok := services[id]
	return s, ok
}

// All returns every service ordered by id.
func All() []Service {
	out := make([]Service, 0, len(services))
	for _, s := range services {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Quote returns the total cost of booking serviceID for the given number of hours.
func Quote(serviceID string, hours int) (int64, error) {
	s, ok := services[serviceID]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownService, serviceID)
	}
	if hours < 1 {
		return 0, ErrInvalidDuration
	}
	return s.PricePerHour * int64(hours), nil
}
