package hcl

import (
	"context"
	"fmt"

	"github.com/vk/realityserver/internal/config"
)

func translateServer(b *serverBlock, out *config.Server) {
	if b.Port != nil {
		out.Port = *b.Port
	}
	if b.Developer != nil {
		out.Developer = *b.Developer
	}
	if b.Debug != nil {
		out.Debug = *b.Debug
	}
	if b.ObjectsPath != nil {
		out.ObjectsPath = *b.ObjectsPath
	}
}

// translateInterface converts an interface block into the agnostic model.
func translateInterface(ctx context.Context, b *interfaceBlock) (*config.Interface, error) {
	in := &config.Interface{
		Name:    b.Name,
		Object:  b.Object,
		Frame:   b.Frame,
		Enabled: true,
	}
	if b.Enabled != nil {
		in.Enabled = *b.Enabled
	}
	for _, nb := range b.Nodes {
		node, err := translateNode(ctx, nb)
		if err != nil {
			return nil, fmt.Errorf("interface '%s', node '%s': %w", b.Name, nb.Name, err)
		}
		in.Nodes = append(in.Nodes, node)
	}
	return in, nil
}

func translateNode(ctx context.Context, b *nodeBlock) (*config.Node, error) {
	node := &config.Node{
		Name:    b.Name,
		Type:    config.DefaultNodeType,
		X:       b.X,
		Y:       b.Y,
		UnitMax: 1,
	}
	if b.Type != nil {
		node.Type = *b.Type
	}
	if b.Unit != nil {
		node.Unit = *b.Unit
	}
	if b.UnitMin != nil {
		node.UnitMin = *b.UnitMin
	}
	if b.UnitMax != nil {
		node.UnitMax = *b.UnitMax
	}

	if isExprDefined(ctx, b.Value, "value") {
		var value float64
		if err := decodeExpr(ctx, b.Value, &value); err != nil {
			return nil, fmt.Errorf("invalid value: %w", err)
		}
		node.Value = &value
	}

	if isExprDefined(ctx, b.PublicData, "public_data") {
		val, diags := b.PublicData.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid public_data: %w", diags)
		}
		if !val.Type().IsObjectType() && !val.Type().IsMapType() {
			return nil, fmt.Errorf("public_data must be an object, got %s", val.Type().FriendlyName())
		}
		data, err := ctyValueToInterface(val)
		if err != nil {
			return nil, fmt.Errorf("invalid public_data: %w", err)
		}
		node.PublicData, _ = data.(map[string]any)
	}
	return node, nil
}

func translateScreen(b *screenBlock) *config.Screen {
	s := &config.Screen{
		Name:   b.Name,
		Object: b.Object,
		Port:   b.Port,
	}
	if b.TargetWidth != nil {
		s.TargetWidth = *b.TargetWidth
	}
	if b.TargetHeight != nil {
		s.TargetHeight = *b.TargetHeight
	}
	return s
}
