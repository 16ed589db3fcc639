// Package visualization keeps the frames shown on a companion screen in step
// with the AR editor.
//
// The editor pushes screenObject events carrying projected touches. For each
// frame the Machine decides whether it renders in AR or on the screen, moves
// the drag target across when a frame is pushed in or pulled out, and replays
// the touch as pointer events so a drag continues across the transition.
//
// Rendering is left to a Renderer; pose updates go back to the server through
// a PosePoster.
package visualization
