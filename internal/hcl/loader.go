package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/realityserver/internal/config"
	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load parses every .hcl file under paths, merges their blocks into one
// model and validates it.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := config.NewModel()

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	serverSeen := ""

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, server := range root.Servers {
			if serverSeen != "" {
				return nil, fmt.Errorf("duplicate server block in %s, first defined in %s", file, serverSeen)
			}
			serverSeen = file
			translateServer(server, &model.Server)
		}
		for _, object := range root.Objects {
			model.Objects = append(model.Objects, &config.Object{Name: object.Name, ID: object.ID})
		}
		for _, in := range root.Interfaces {
			def, err := translateInterface(ctx, in)
			if err != nil {
				return nil, fmt.Errorf("in file %s: %w", file, err)
			}
			model.Interfaces = append(model.Interfaces, def)
		}
		for _, screen := range root.Screens {
			model.Screens = append(model.Screens, translateScreen(screen))
		}
	}

	if err := model.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.", "objects", len(model.Objects), "interfaces", len(model.Interfaces), "screens", len(model.Screens))
	return model, nil
}
