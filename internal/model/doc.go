// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the Go representation of the objects, frames and
// nodes that hardware interfaces expose, together with the message shapes
// exchanged with editors and screens.
//
// # Core Concepts
//
//   - Object: the top-level AR entity, identified by an objectid.ObjectID and
//     owning a set of frames.
//
//   - Frame: a visual element of an object. A frame renders either in the AR
//     view (ARPose) or on a companion screen (ScreenPose), selected by its
//     Visualization.
//
//   - Node: an IO point on a frame. It carries a value (Data), free-form
//     public data fields and its placement within the frame.
//
// Frames and nodes are stored under structured keys. Their JSON form keys
// them by the legacy concatenated id, which is what editors and screens use.
package model
