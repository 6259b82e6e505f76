package model

import (
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// GLTFLoader imports .gltf/.glb files. Every primitive of every mesh becomes
// one Mesh; the material of the first primitive becomes the model material.
type GLTFLoader struct{}

func (GLTFLoader) Load(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open gltf %q", path)
	}

	m := &Model{Path: path, Material: DefaultMaterial}
	materialSet := false
	for iMesh, mesh := range doc.Meshes {
		for iPrim, prim := range mesh.Primitives {
			out, err := readPrimitive(doc, prim, filepath.Dir(path))
			if err != nil {
				return nil, errors.Wrapf(err, "mesh %d primitive %d", iMesh, iPrim)
			}
			m.Meshes = append(m.Meshes, out)
			if !materialSet && prim.Material != nil && int(*prim.Material) < len(doc.Materials) {
				m.Material = convertMaterial(doc.Materials[*prim.Material])
				materialSet = true
			}
		}
	}
	if len(m.Meshes) == 0 {
		return nil, errors.Errorf("gltf %q has no mesh primitives", path)
	}
	return m, nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive, dir string) (Mesh, error) {
	var out Mesh

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return out, errors.New("primitive without POSITION")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return out, errors.Wrap(err, "read positions")
	}
	out.Vertices = make([]Vertex, len(positions))
	for i, p := range positions {
		out.Vertices[i].Position = mgl32.Vec3(p)
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return out, errors.Wrap(err, "read normals")
		}
		for i := 0; i < len(normals) && i < len(out.Vertices); i++ {
			out.Vertices[i].Normal = mgl32.Vec3(normals[i])
		}
	}

	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return out, errors.Wrap(err, "read uvs")
		}
		for i := 0; i < len(uvs) && i < len(out.Vertices); i++ {
			out.Vertices[i].UV = mgl32.Vec2(uvs[i])
		}
	}

	if prim.Indices != nil {
		out.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return out, errors.Wrap(err, "read indices")
		}
	} else {
		out.Indices = make([]uint32, len(out.Vertices))
		for i := range out.Indices {
			out.Indices[i] = uint32(i)
		}
	}

	out.TexturePath = texturePath(doc, prim, dir)
	return out, nil
}

func texturePath(doc *gltf.Document, prim *gltf.Primitive, dir string) string {
	if prim.Material == nil || int(*prim.Material) >= len(doc.Materials) {
		return ""
	}
	pbr := doc.Materials[*prim.Material].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorTexture == nil {
		return ""
	}
	texIdx := pbr.BaseColorTexture.Index
	if int(texIdx) >= len(doc.Textures) || doc.Textures[texIdx].Source == nil {
		return ""
	}
	img := doc.Images[*doc.Textures[texIdx].Source]
	if img.URI == "" || img.IsEmbeddedResource() {
		return ""
	}
	return filepath.Join(dir, img.URI)
}

func convertMaterial(mat *gltf.Material) Material {
	out := DefaultMaterial
	pbr := mat.PBRMetallicRoughness
	if pbr == nil {
		return out
	}
	if pbr.BaseColorFactor != nil {
		out.Diffuse = mgl32.Vec4(*pbr.BaseColorFactor)
	}
	// Map roughness onto a Phong exponent: smooth surfaces get tight highlights.
	roughness := float32(1)
	if pbr.RoughnessFactor != nil {
		roughness = *pbr.RoughnessFactor
	}
	out.Shininess = 2 + (1-roughness)*126
	metal := float32(1)
	if pbr.MetallicFactor != nil {
		metal = *pbr.MetallicFactor
	}
	s := 0.04 + 0.96*metal
	out.Specular = mgl32.Vec4{s, s, s, 1}
	return out
}
