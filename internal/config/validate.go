package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that names are unique.
func (m *Model) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var errs []error
	objects := make(map[string]struct{}, len(m.Objects))
	for _, o := range m.Objects {
		if _, dup := objects[o.Name]; dup {
			errs = append(errs, fmt.Errorf("object %q is defined more than once", o.Name))
		}
		objects[o.Name] = struct{}{}
	}
	interfaces := make(map[string]struct{}, len(m.Interfaces))
	for _, in := range m.Interfaces {
		if _, dup := interfaces[in.Name]; dup {
			errs = append(errs, fmt.Errorf("interface %q is defined more than once", in.Name))
		}
		interfaces[in.Name] = struct{}{}
		nodes := make(map[string]struct{}, len(in.Nodes))
		for _, n := range in.Nodes {
			if _, dup := nodes[n.Name]; dup {
				errs = append(errs, fmt.Errorf("interface %q declares node %q more than once", in.Name, n.Name))
			}
			nodes[n.Name] = struct{}{}
		}
	}
	screens := make(map[string]struct{}, len(m.Screens))
	ports := make(map[int]string, len(m.Screens))
	for _, s := range m.Screens {
		if _, dup := screens[s.Name]; dup {
			errs = append(errs, fmt.Errorf("screen %q is defined more than once", s.Name))
		}
		screens[s.Name] = struct{}{}
		if other, dup := ports[s.Port]; dup {
			errs = append(errs, fmt.Errorf("screens %q and %q share port %d", other, s.Name, s.Port))
		}
		ports[s.Port] = s.Name
		if s.Port == m.Server.Port {
			errs = append(errs, fmt.Errorf("screen %q uses the server port %d", s.Name, s.Port))
		}
	}
	return errors.Join(errs...)
}
