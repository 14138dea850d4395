package action

import (
	"fmt"
	"regexp"
	"strings"
)

// ImageKind tags screenshot artifacts by role.
type ImageKind string

// Image kind suffixes.
const (
	KindOriginal  ImageKind = "O" // recorded baseline
	KindTest      ImageKind = "T" // playback capture
	KindDiff      ImageKind = "D" // grayscale difference
	KindHighlight ImageKind = "H" // red overlay with region boxes
)

// ImageName returns the deterministic screenshot file name for a
// (group, shot, kind) triple, e.g. "0_003O.png".
func ImageName(groupIndex, shotIndex int, kind ImageKind) string {
	if groupIndex < 0 {
		groupIndex = 0
	}
	if shotIndex < 0 {
		shotIndex = 0
	}
	k := kind
	if k == "" {
		k = KindOriginal
	}
	return fmt.Sprintf("%d_%03d%s.png", groupIndex, shotIndex, k)
}

// EvidenceName derives a D or H image name from a T or O image name,
// keeping the same stem ("0_003T.png" -> "0_003D.png"). Stems without a
// kind suffix get "_D"/"_H" appended instead.
func EvidenceName(imageName string, kind ImageKind) string {
	stem := strings.TrimSuffix(imageName, ".png")
	if stem == "" {
		return string(kind) + ".png"
	}
	last := stem[len(stem)-1:]
	if last == string(KindTest) || last == string(KindOriginal) {
		return stem[:len(stem)-1] + string(kind) + ".png"
	}
	return stem + "_" + string(kind) + ".png"
}

var dottedCodePattern = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)*)`)

// DottedCode extracts a leading dotted numeric code like "1.2.3" from a
// test name, falling back to "test" when none is present.
func DottedCode(testName string) string {
	if testName == "" {
		return "test"
	}
	if m := dottedCodePattern.FindStringSubmatch(testName); m != nil {
		return m[1]
	}
	cleaned := regexp.MustCompile(`[^0-9A-Za-z.]+`).ReplaceAllString(testName, "")
	if cleaned == "" {
		return "test"
	}
	return cleaned
}
