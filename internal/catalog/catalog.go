// Package catalog holds the salon's static reference data: the service menu,
// the bookable time slots, advance-payment rules, and contact metadata. It is
// read-only input to the dialogue engine; nothing here mutates at runtime.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// Service is a single bookable service on the menu.
type Service struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"` // whole currency units
	Duration string `json:"duration"`
}

// SalonInfo carries contact and payment metadata shown to customers.
type SalonInfo struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	UPIID      string `json:"upi_id"`
	QRCodePath string `json:"qr_code_path"`
	Hours      string `json:"hours"`
}

// Catalog is the full static configuration consumed by the dialogue engine.
type Catalog struct {
	Services          []Service `json:"services"`
	TimeSlots         []string  `json:"time_slots"`
	AdvanceThreshold  int       `json:"advance_threshold"`
	AdvancePercentage float64   `json:"advance_percentage"`
	Salon             SalonInfo `json:"salon"`
}

// Default returns the built-in catalog. Deployments override it with a JSON
// file via CATALOG_PATH.
func Default() *Catalog {
	return &Catalog{
		Services: []Service{
			{ID: "1", Name: "Haircut (Men)", Price: 150, Duration: "30 min"},
			{ID: "2", Name: "Haircut (Women)", Price: 300, Duration: "45 min"},
			{ID: "3", Name: "Beard Trim", Price: 80, Duration: "15 min"},
			{ID: "4", Name: "Haircut + Beard Combo", Price: 200, Duration: "45 min"},
			{ID: "5", Name: "Facial Treatment", Price: 500, Duration: "60 min"},
			{ID: "6", Name: "Hair Coloring", Price: 800, Duration: "90 min"},
			{ID: "7", Name: "Spa Package", Price: 1500, Duration: "120 min"},
			{ID: "8", Name: "Bridal Makeup", Price: 2500, Duration: "180 min"},
		},
		TimeSlots: []string{
			"10:00 AM", "11:00 AM", "12:00 PM",
			"01:00 PM", "02:00 PM", "03:00 PM",
			"04:00 PM", "05:00 PM", "06:00 PM", "07:00 PM",
		},
		AdvanceThreshold:  1000,
		AdvancePercentage: 0.5,
		Salon: SalonInfo{
			Name:       "Smart Salon",
			Address:    "123 Main Street, City",
			Phone:      "+91 9876543210",
			UPIID:      "salon@upi",
			QRCodePath: "static/qr_code.jpg",
			Hours:      "Monday - Sunday\n10:00 AM - 8:00 PM",
		},
	}
}

// LoadFile reads a catalog from a JSON file and validates it.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks structural invariants the engine relies on.
func (c *Catalog) Validate() error {
	if len(c.Services) == 0 {
		return fmt.Errorf("catalog: no services defined")
	}
	seen := make(map[string]struct{}, len(c.Services))
	for _, s := range c.Services {
		if s.ID == "" {
			return fmt.Errorf("catalog: service %q has empty id", s.Name)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("catalog: duplicate service id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.Price < 0 {
			return fmt.Errorf("catalog: service %q has negative price", s.Name)
		}
	}
	if len(c.TimeSlots) == 0 {
		return fmt.Errorf("catalog: no time slots defined")
	}
	if c.AdvancePercentage < 0 || c.AdvancePercentage > 1 {
		return fmt.Errorf("catalog: advance percentage %v out of range [0,1]", c.AdvancePercentage)
	}
	return nil
}

// Service looks up a service by id.
func (c *Catalog) Service(id string) (Service, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// HasSlot reports whether label is one of the catalog's defined slots.
func (c *Catalog) HasSlot(label string) bool {
	for _, s := range c.TimeSlots {
		if s == label {
			return true
		}
	}
	return false
}

// Total sums catalog prices for the given service ids. Unknown ids are an
// error; the engine validates before calling, so hitting one means a bug.
func (c *Catalog) Total(ids []string) (int, error) {
	total := 0
	for _, id := range ids {
		svc, ok := c.Service(id)
		if !ok {
			return 0, fmt.Errorf("catalog: unknown service id %q", id)
		}
		total += svc.Price
	}
	return total, nil
}

// Advance returns the advance deposit due for a total, 0 when the total is
// below the threshold. The amount is integer-floored.
func (c *Catalog) Advance(total int) int {
	if total < c.AdvanceThreshold {
		return 0
	}
	return int(float64(total) * c.AdvancePercentage)
}

// ServiceNames maps ids to display names, skipping unknown ids.
func (c *Catalog) ServiceNames(ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if svc, ok := c.Service(id); ok {
			names = append(names, svc.Name)
		}
	}
	return names
}
