package asset

import (
	"errors"
	"testing"

	"github.com/fetchy-pm/fetchy/pkg/platform"
	"github.com/fetchy-pm/fetchy/pkg/repository"
)

func TestSelectFound(t *testing.T) {
	linux := platform.Platform{OS: platform.Linux, Arch: platform.X86_64}
	decl := repository.PackageDecl{
		Name: "rg",
		Variants: map[platform.Platform]repository.AssetSpec{
			linux: {Pattern: "rg-linux"},
		},
	}
	spec, err := Select("rg", decl, linux)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if spec.Pattern != "rg-linux" {
		t.Errorf("Pattern = %q, want %q", spec.Pattern, "rg-linux")
	}
}

func TestSelectMissing(t *testing.T) {
	decl := repository.PackageDecl{
		Name:     "rg",
		Variants: map[platform.Platform]repository.AssetSpec{},
	}
	_, err := Select("rg", decl, platform.Platform{OS: platform.Windows, Arch: platform.AArch64})
	if err == nil {
		t.Fatal("expected NoAssetForPlatform")
	}
	var target *NoAssetForPlatform
	if !errors.As(err, &target) {
		t.Fatalf("expected *NoAssetForPlatform, got %T", err)
	}
}
