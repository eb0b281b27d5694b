package tilestore

import (
	"testing"

	"github.com/fintelia/terra/internal/layer"
)

func TestWriteReadTextureRaw(t *testing.T) {
	s := openTestStore(t, "")
	desc := TextureDescriptor{Width: 4, Height: 4, Depth: 1, Format: layer.FormatR32F, Bytes: 64}
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i)
	}

	if err := s.WriteTexture("noise", desc, data); err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}

	gotDesc, gotData, err := s.ReadTexture("noise")
	if err != nil {
		t.Fatalf("ReadTexture: %v", err)
	}
	if gotDesc != desc {
		t.Errorf("ReadTexture descriptor = %+v, want %+v", gotDesc, desc)
	}
	if string(gotData) != string(data) {
		t.Errorf("ReadTexture data mismatch")
	}
}

func TestWriteReadTextureRGBA8(t *testing.T) {
	s := openTestStore(t, "")
	const w, h = 2, 2
	desc := TextureDescriptor{Width: w, Height: h, Depth: 1, Format: layer.FormatRGBA8, Bytes: w * h * 4}
	data := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}

	if err := s.WriteTexture("colormap", desc, data); err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}

	gotDesc, gotData, err := s.ReadTexture("colormap")
	if err != nil {
		t.Fatalf("ReadTexture: %v", err)
	}
	if gotDesc.Width != desc.Width || gotDesc.Height != desc.Height {
		t.Errorf("ReadTexture descriptor = %+v, want %+v", gotDesc, desc)
	}
	if len(gotData) != len(data) {
		t.Fatalf("ReadTexture data length = %d, want %d", len(gotData), len(data))
	}
	for i := range data {
		if gotData[i] != data[i] {
			t.Errorf("byte %d = %d, want %d", i, gotData[i], data[i])
		}
	}
}

func TestReloadTextureReportsMissingFile(t *testing.T) {
	s := openTestStore(t, "")
	if s.ReloadTexture("never-written") {
		t.Error("ReloadTexture reported true for a name never written")
	}

	desc := TextureDescriptor{Width: 1, Height: 1, Depth: 1, Format: layer.FormatR8, Bytes: 1}
	if err := s.WriteTexture("present", desc, []byte{7}); err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}
	if !s.ReloadTexture("present") {
		t.Error("ReloadTexture reported false for a texture that was just written")
	}
}
