package model

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestGLTFLoaderTriangle(t *testing.T) {
	path := filepath.Join("..", "..", "assets", "models", "triangle.gltf")
	m, err := GLTFLoader{}.Load(path)
	require.NoError(t, err)

	require.Len(t, m.Meshes, 1)
	require.Equal(t, 3, m.VertexCount())
	require.Equal(t, []uint32{0, 1, 2}, m.Meshes[0].Indices)
	require.Equal(t, mgl32.Vec3{1, 0, 0}, m.Meshes[0].Vertices[1].Position)
	require.Empty(t, m.Meshes[0].TexturePath)

	require.Equal(t, mgl32.Vec4{0.8, 0.8, 0.8, 1}, m.Material.Diffuse)
	require.InDelta(t, 65, m.Material.Shininess, 1e-4)
}

func TestGLTFLoaderMissingFile(t *testing.T) {
	_, err := GLTFLoader{}.Load("does-not-exist.gltf")
	require.ErrorContains(t, err, "open gltf")
}
