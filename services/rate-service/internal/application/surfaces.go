package application

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wms-platform/courier-rates/services/rate-service/internal/domain"
)

// SurfaceDefaults holds the initial sort state of each portal
type SurfaceDefaults struct {
	sorts map[domain.Surface]domain.SortState
}

type surfacesFile struct {
	Surfaces map[string]struct {
		Sort      string `yaml:"sort"`
		Direction string `yaml:"direction"`
	} `yaml:"surfaces"`
}

// DefaultSurfaceDefaults sorts customers by total, sellers by shipping and admins by courier
func DefaultSurfaceDefaults() *SurfaceDefaults {
	return &SurfaceDefaults{
		sorts: map[domain.Surface]domain.SortState{
			domain.SurfaceCustomer: domain.NewSortState(domain.SortByTotal),
			domain.SurfaceSeller:   domain.NewSortState(domain.SortByShipping),
			domain.SurfaceAdmin:    domain.NewSortState(domain.SortByCourier),
		},
	}
}

// LoadSurfaceDefaults reads overrides from a YAML file. An empty path returns the defaults.
//
//	surfaces:
//	  seller:
//	    sort: total
//	    direction: desc
func LoadSurfaceDefaults(path string) (*SurfaceDefaults, error) {
	defaults := DefaultSurfaceDefaults()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read surfaces file: %w", err)
	}

	if err := defaults.merge(data); err != nil {
		return nil, fmt.Errorf("invalid surfaces file %s: %w", path, err)
	}
	return defaults, nil
}

func (d *SurfaceDefaults) merge(data []byte) error {
	var file surfacesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	for name, entry := range file.Surfaces {
		surface, err := domain.ParseSurface(name)
		if err != nil {
			return fmt.Errorf("surface %q: %w", name, err)
		}
		field, err := domain.ParseSortField(entry.Sort)
		if err != nil {
			return fmt.Errorf("surface %q: %w", name, err)
		}
		dir, err := domain.ParseSortDirection(entry.Direction)
		if err != nil {
			return fmt.Errorf("surface %q: %w", name, err)
		}
		d.sorts[surface] = domain.SortState{Field: field, Direction: dir}
	}

	return nil
}

// SortFor returns the initial sort state for surface
func (d *SurfaceDefaults) SortFor(surface domain.Surface) domain.SortState {
	if state, ok := d.sorts[surface]; ok {
		return state
	}
	return domain.NewSortState(domain.SortByTotal)
}
