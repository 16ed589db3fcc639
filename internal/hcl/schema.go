package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Servers    []*serverBlock    `hcl:"server,block"`
	Objects    []*objectBlock    `hcl:"object,block"`
	Interfaces []*interfaceBlock `hcl:"interface,block"`
	Screens    []*screenBlock    `hcl:"screen,block"`
	Remain     hcl.Body          `hcl:",remain"`
}

type serverBlock struct {
	Port        *int    `hcl:"port,optional"`
	Developer   *bool   `hcl:"developer,optional"`
	Debug       *bool   `hcl:"debug,optional"`
	ObjectsPath *string `hcl:"objects_path,optional"`
}

type objectBlock struct {
	Name string `hcl:"name,label"`
	ID   string `hcl:"id,optional"`
}

type interfaceBlock struct {
	Name    string       `hcl:"name,label"`
	Object  string       `hcl:"object"`
	Frame   string       `hcl:"frame"`
	Enabled *bool        `hcl:"enabled,optional"`
	Nodes   []*nodeBlock `hcl:"node,block"`
}

type nodeBlock struct {
	Name       string         `hcl:"name,label"`
	Type       *string        `hcl:"type,optional"`
	X          *float64       `hcl:"x,optional"`
	Y          *float64       `hcl:"y,optional"`
	Value      hcl.Expression `hcl:"value,optional"`
	Unit       *string        `hcl:"unit,optional"`
	UnitMin    *float64       `hcl:"unit_min,optional"`
	UnitMax    *float64       `hcl:"unit_max,optional"`
	PublicData hcl.Expression `hcl:"public_data,optional"`
}

type screenBlock struct {
	Name         string   `hcl:"name,label"`
	Object       string   `hcl:"object"`
	Port         int      `hcl:"port"`
	TargetWidth  *float64 `hcl:"target_width,optional"`
	TargetHeight *float64 `hcl:"target_height,optional"`
}
