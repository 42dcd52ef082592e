package helper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveMissionIdentifier(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"m10", "M10"},
		{"  Keyboard Pilot!  ", "KEYBOARD-PILOT"},
		{"a///b***c", "A-B-C"},
		{"under_score-ok", "UNDER_SCORE-OK"},
		{"---", ""},
		{"", ""},
		{"héllo wörld", "H-LLO-W-RLD"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveMissionIdentifier(tc.in), "input %q", tc.in)
	}
}

func TestDeriveMissionIdentifier_Idempotent(t *testing.T) {
	inputs := []string{"m10", "Keyboard Pilot", "  a b c  ", "M-1_2-3", "!!!", "Ünïcödé Títle"}
	for _, in := range inputs {
		once := DeriveMissionIdentifier(in)
		assert.Equal(t, once, DeriveMissionIdentifier(once), "input %q", in)
	}
}

func TestFolderForIdentifier(t *testing.T) {
	assert.Equal(t, "M10", FolderForIdentifier("10"))
	assert.Equal(t, "M10", FolderForIdentifier("M10"))
	assert.Equal(t, "MABC", FolderForIdentifier("abc"))
	assert.Equal(t, "", FolderForIdentifier("!!!"))

	// no double prefix
	for _, in := range []string{"10", "M10", "abc", "mission-4"} {
		once := FolderForIdentifier(in)
		assert.Equal(t, once, FolderForIdentifier(once), "input %q", in)
	}
}

func TestMissionFolderForOrder(t *testing.T) {
	assert.Equal(t, "M01", MissionFolderForOrder(1))
	assert.Equal(t, "M07", MissionFolderForOrder(7))
	assert.Equal(t, "M42", MissionFolderForOrder(42))
	assert.Equal(t, "M120", MissionFolderForOrder(120))
}

func TestSanitizeCustomFolder(t *testing.T) {
	got := SanitizeCustomFolder("../../etc/M10")
	assert.NotContains(t, got, "..")
	assert.False(t, strings.HasPrefix(got, "/"))
	assert.Equal(t, "etc/M10", got)

	assert.Equal(t, "a/b", SanitizeCustomFolder("a//b"))
	assert.Equal(t, "a/-/b", SanitizeCustomFolder("a/../b"))
	assert.Equal(t, "M10/images", SanitizeCustomFolder("./M10/images"))
	assert.Equal(t, "", SanitizeCustomFolder("   "))
	assert.Equal(t, "my-folder", SanitizeCustomFolder("my folder"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "photo.png", SanitizeFilename("photo.png"))
	assert.Equal(t, "my_photo_1_.png", SanitizeFilename("my photo (1).png"))
	assert.Equal(t, "a_b.webp", SanitizeFilename("a/b.webp"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "keyboard-pilot", Slugify("Keyboard Pilot", 0))
	assert.Equal(t, "cafe-creme", Slugify("Café Crème", 0))
	assert.Equal(t, "item", Slugify("!!!", 0))
	assert.Equal(t, "ab", Slugify("ab", 2))
}

func TestFallbackFolder(t *testing.T) {
	got := FallbackFolder("Keyboard Pilot")
	assert.True(t, strings.HasPrefix(got, "m-keyboard-pilot-"), got)
	assert.NotEqual(t, got, FallbackFolder("Keyboard Pilot"), "random suffix must differ")
}
