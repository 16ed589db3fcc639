// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
package model

// ReloadObject asks editors to reload an object, or one of its frames.
type ReloadObject struct {
	Object string `json:"object"`
	Frame  string `json:"frame,omitempty"`
}

// AdvertiseConnection announces that a node wants to be linked.
type AdvertiseConnection struct {
	Object string   `json:"object"`
	Frame  string   `json:"frame"`
	Node   string   `json:"node"`
	Logic  bool     `json:"logic"`
	Names  []string `json:"names"`
}

// Action is a broadcast to editors. Exactly one field is set.
type Action struct {
	ReloadObject        *ReloadObject        `json:"reloadObject,omitempty"`
	AdvertiseConnection *AdvertiseConnection `json:"advertiseConnection,omitempty"`
}
