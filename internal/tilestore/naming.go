package tilestore

import (
	"fmt"
	"path/filepath"

	"github.com/fintelia/terra/internal/layer"
	"github.com/fintelia/terra/internal/vnode"
)

// faceToken renders a VNode's cube face as the short geographic label the
// on-disk tile layout uses instead of a bare face index.
func faceToken(face uint8) string {
	switch face {
	case 0:
		return "0E"
	case 1:
		return "180E"
	case 2:
		return "90E"
	case 3:
		return "90W"
	case 4:
		return "N"
	case 5:
		return "S"
	default:
		return fmt.Sprintf("face%d", face)
	}
}

// tileName returns the relative path of a tile's file within the tile
// store's root directory, e.g. "heightmaps/heightmaps_4_0E_3x2.raw".
func tileName(layerType layer.Type, node vnode.VNode) string {
	return fmt.Sprintf("%s/%s_%d_%s_%dx%d.%s",
		layerType, layerType, node.Level(), faceToken(node.Face()), node.X(), node.Y(), layerType.FileExtension())
}

func (s *Store) tilePath(layerType layer.Type, node vnode.VNode) string {
	return filepath.Join(s.tilesDir, tileName(layerType, node))
}

func (s *Store) tileURL(layerType layer.Type, node vnode.VNode) string {
	return s.remoteBaseURL + tileName(layerType, node)
}
