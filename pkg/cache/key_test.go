package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/storyboard/storyboard/pkg/cache"
	"github.com/storyboard/storyboard/pkg/types"
)

func imageFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing image fixture: %v", err)
	}
	return path
}

func baseRequest(parts ...types.ResolvedPart) types.Request {
	return types.Request{
		Kind:  types.AssetTypeImage,
		Parts: parts,
		Model: types.ModelRef{Vendor: "gemini", Model: "gemini-3-pro-image-preview"},
	}
}

func TestKeyIsDeterministic(t *testing.T) {
	photo := imageFile(t, "nick.png", "photo bytes")
	req := baseRequest(
		types.TextPart("A tavern interior. "),
		types.ImagePart(photo),
		types.TextPart(" Warm candlelight."),
	)

	k1 := cache.ComputeKey(req)
	k2 := cache.ComputeKey(req)
	if k1 != k2 {
		t.Fatalf("identical requests produced %s and %s", k1, k2)
	}
	if len(k1) != 16 {
		t.Fatalf("key length = %d, want 16", len(k1))
	}
}

func TestKeyTracksImageContentNotPath(t *testing.T) {
	a := imageFile(t, "a.png", "same bytes")
	b := imageFile(t, "b.png", "same bytes")

	k1 := cache.ComputeKey(baseRequest(types.ImagePart(a)))
	k2 := cache.ComputeKey(baseRequest(types.ImagePart(b)))
	if k1 != k2 {
		t.Fatal("identical image content under different paths changed the key")
	}

	c := imageFile(t, "c.png", "different bytes")
	k3 := cache.ComputeKey(baseRequest(types.ImagePart(c)))
	if k3 == k1 {
		t.Fatal("different image content produced the same key")
	}
}

func TestKeyDiscriminates(t *testing.T) {
	base := baseRequest(types.TextPart("hello"), types.TextPart("world"))

	reordered := baseRequest(types.TextPart("world"), types.TextPart("hello"))
	if cache.ComputeKey(base) == cache.ComputeKey(reordered) {
		t.Fatal("part order does not affect the key")
	}

	otherText := baseRequest(types.TextPart("hello"), types.TextPart("there"))
	if cache.ComputeKey(base) == cache.ComputeKey(otherText) {
		t.Fatal("text content does not affect the key")
	}

	otherModel := base
	otherModel.Model = types.ModelRef{Vendor: "gemini", Model: "gemini-2.5-flash-image"}
	if cache.ComputeKey(base) == cache.ComputeKey(otherModel) {
		t.Fatal("model does not affect the key")
	}

	otherKind := base
	otherKind.Kind = types.AssetTypeAudio
	if cache.ComputeKey(base) == cache.ComputeKey(otherKind) {
		t.Fatal("asset kind does not affect the key")
	}

	voiced := base
	voiced.Voice = "Kore"
	if cache.ComputeKey(base) == cache.ComputeKey(voiced) {
		t.Fatal("voice does not affect the key")
	}
}

func TestKeyPartKindMatters(t *testing.T) {
	// The same string as text versus image reference must not collide.
	k1 := cache.ComputeKey(baseRequest(types.TextPart("./asset.png")))
	k2 := cache.ComputeKey(baseRequest(types.ImagePart("./asset.png")))
	if k1 == k2 {
		t.Fatal("text and image parts with equal values collide")
	}
}
