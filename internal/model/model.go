// Package model holds shared renderable assets and the registry that owns
// them for the lifetime of a scene.
package model

import "github.com/go-gl/mathgl/mgl32"

// Vertex is one interleaved vertex as handed to the render layer.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// Mesh is one sub-mesh with its own optional texture.
type Mesh struct {
	Vertices    []Vertex
	Indices     []uint32
	TexturePath string
}

// Material carries the lighting constants read by the render layer.
type Material struct {
	Diffuse   mgl32.Vec4
	Specular  mgl32.Vec4
	Shininess float32
}

// DefaultMaterial is used when an asset carries no material of its own.
var DefaultMaterial = Material{
	Diffuse:   mgl32.Vec4{0.8, 0.8, 0.8, 1},
	Specular:  mgl32.Vec4{0.2, 0.2, 0.2, 1},
	Shininess: 16,
}

// Model is one imported asset shared by any number of entities.
type Model struct {
	Path     string
	Meshes   []Mesh
	Material Material

	refs int
}

// IncrementReference records one more entity attached to the model.
func (m *Model) IncrementReference() {
	m.refs++
}

// DecrementReference records an entity detaching. Saturates at zero:
// decrementing an unreferenced model is a silent no-op.
func (m *Model) DecrementReference() {
	if m.refs > 0 {
		m.refs--
	}
}

// References returns the number of entities currently attached.
func (m *Model) References() int { return m.refs }

// VertexCount returns the total vertex count over all meshes.
func (m *Model) VertexCount() int {
	n := 0
	for i := range m.Meshes {
		n += len(m.Meshes[i].Vertices)
	}
	return n
}
