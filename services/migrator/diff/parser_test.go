// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package diff

import (
	"strings"
	"testing"
)

// sampleDiff covers the four record shapes: a text modification, an
// added file, a deleted file, and a binary replacement.
const sampleDiff = `diff --git a/RnDiffApp/package.json b/RnDiffApp/package.json
index 1234567..89abcde 100644
--- a/RnDiffApp/package.json
+++ b/RnDiffApp/package.json
@@ -1,3 +1,3 @@
   "dependencies": {
-    "react-native": "0.79.0",
+    "react-native": "0.80.0",
diff --git a/RnDiffApp/App.tsx b/RnDiffApp/App.tsx
new file mode 100644
index 0000000..1111111
--- /dev/null
+++ b/RnDiffApp/App.tsx
@@ -0,0 +1,2 @@
+import React from 'react';
+export default function App() {}
diff --git a/RnDiffApp/App.js b/RnDiffApp/App.js
deleted file mode 100644
index 1111111..0000000
--- a/RnDiffApp/App.js
+++ /dev/null
@@ -1,2 +0,0 @@
-import React from 'react';
-export default class App {}
diff --git a/RnDiffApp/android/app/debug.keystore b/RnDiffApp/android/app/debug.keystore
index 2222222..3333333 100644
Binary files a/RnDiffApp/android/app/debug.keystore and b/RnDiffApp/android/app/debug.keystore differ
`

// =============================================================================
// Parse Tests
// =============================================================================

func TestParser_Parse(t *testing.T) {
	parser := NewParser("0.80.0", nil)
	records := parser.Parse(sampleDiff)

	// One record per diff --git header.
	headers := strings.Count(sampleDiff, "diff --git ")
	if len(records) != headers {
		t.Fatalf("Parse() produced %d records for %d headers", len(records), headers)
	}

	t.Run("modified text file", func(t *testing.T) {
		rec := records[0]
		if rec.Path != "RnDiffApp/package.json" {
			t.Errorf("Path = %q", rec.Path)
		}
		if rec.Status != StatusModified {
			t.Errorf("Status = %v, want modified", rec.Status)
		}
		if rec.IsBinary {
			t.Error("text file flagged binary")
		}
		if !strings.Contains(rec.Content, `+    "react-native": "0.80.0",`) {
			t.Errorf("Content missing added line:\n%s", rec.Content)
		}
		if len(rec.Hunks()) != 1 {
			t.Errorf("Hunks() = %d, want 1", len(rec.Hunks()))
		}
	})

	t.Run("added file", func(t *testing.T) {
		rec := records[1]
		if rec.Path != "RnDiffApp/App.tsx" {
			t.Errorf("Path = %q", rec.Path)
		}
		if rec.Status != StatusAdded {
			t.Errorf("Status = %v, want added", rec.Status)
		}
	})

	t.Run("deleted file uses old path", func(t *testing.T) {
		rec := records[2]
		if rec.Path != "RnDiffApp/App.js" {
			t.Errorf("Path = %q", rec.Path)
		}
		if rec.Status != StatusDeleted {
			t.Errorf("Status = %v, want deleted", rec.Status)
		}
	})

	t.Run("binary file gets download URL", func(t *testing.T) {
		rec := records[3]
		if rec.Status != StatusBinary {
			t.Errorf("Status = %v, want binary", rec.Status)
		}
		if !rec.IsBinary {
			t.Error("IsBinary = false")
		}
		want := DefaultAssetBase + "/0.80.0/RnDiffApp/android/app/debug.keystore"
		if rec.DownloadURL != want {
			t.Errorf("DownloadURL = %q, want %q", rec.DownloadURL, want)
		}
		if rec.Content != "" {
			t.Error("binary record should carry no text content")
		}
		if rec.Hunks() != nil {
			t.Error("binary record should carry no hunks")
		}
	})
}

func TestParser_Parse_EmptyInput(t *testing.T) {
	parser := NewParser("0.80.0", nil)

	for _, input := range []string{"", "   ", "\n\n"} {
		records := parser.Parse(input)
		if records == nil {
			t.Error("Parse() returned nil, want empty slice")
		}
		if len(records) != 0 {
			t.Errorf("Parse(%q) produced %d records, want 0", input, len(records))
		}
	}
}

func TestParser_Parse_Malformed(t *testing.T) {
	parser := NewParser("0.80.0", nil)

	// Garbage input degrades to an empty change set, never panics.
	records := parser.Parse("this is not a diff\nnot even close\n")
	if len(records) != 0 {
		t.Errorf("Parse() of garbage produced %d records, want 0", len(records))
	}
}

func TestParser_Parse_HeaderWithoutHunks(t *testing.T) {
	raw := `diff --git a/RnDiffApp/gradlew b/RnDiffApp/gradlew
old mode 100644
new mode 100755
`
	parser := NewParser("0.80.0", nil)
	records := parser.Parse(raw)
	if len(records) != 1 {
		t.Fatalf("Parse() produced %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Path != "RnDiffApp/gradlew" {
		t.Errorf("Path = %q", rec.Path)
	}
	if rec.Content != "" {
		t.Errorf("mode-only change should have empty content, got %q", rec.Content)
	}
}

func TestParser_WithAssetBase(t *testing.T) {
	raw := `diff --git a/RnDiffApp/android/app/debug.keystore b/RnDiffApp/android/app/debug.keystore
index 2222222..3333333 100644
Binary files a/RnDiffApp/android/app/debug.keystore and b/RnDiffApp/android/app/debug.keystore differ
`
	parser := NewParser("0.80.0", nil).WithAssetBase("https://mirror.example.com/release/")
	records := parser.Parse(raw)
	if len(records) != 1 {
		t.Fatalf("Parse() produced %d records", len(records))
	}
	want := "https://mirror.example.com/release/0.80.0/RnDiffApp/android/app/debug.keystore"
	if records[0].DownloadURL != want {
		t.Errorf("DownloadURL = %q, want %q", records[0].DownloadURL, want)
	}
}

// =============================================================================
// Path Helper Tests
// =============================================================================

func TestStripSidePrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a/RnDiffApp/App.tsx", "RnDiffApp/App.tsx"},
		{"b/RnDiffApp/App.tsx", "RnDiffApp/App.tsx"},
		{NullDevice, NullDevice},
		{"", ""},
		{"RnDiffApp/App.tsx", "RnDiffApp/App.tsx"},
	}
	for _, tt := range tests {
		if got := stripSidePrefix(tt.input); got != tt.want {
			t.Errorf("stripSidePrefix(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStripTemplateRoot(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"RnDiffApp/android/build.gradle", "android/build.gradle"},
		{"RnDiffApp/.watchmanconfig", ".watchmanconfig"},
		{"android/build.gradle", "android/build.gradle"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripTemplateRoot(tt.input); got != tt.want {
			t.Errorf("StripTemplateRoot(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsBinaryPath(t *testing.T) {
	binary := []string{
		"RnDiffApp/android/gradle/wrapper/gradle-wrapper.jar",
		"RnDiffApp/android/app/debug.keystore",
		"RnDiffApp/ios/icon.png",
		"fonts/App.ttf",
	}
	for _, p := range binary {
		if !IsBinaryPath(p) {
			t.Errorf("IsBinaryPath(%q) = false, want true", p)
		}
	}

	text := []string{
		"RnDiffApp/package.json",
		"RnDiffApp/android/build.gradle",
		"RnDiffApp/App.tsx",
		"gradlew",
	}
	for _, p := range text {
		if IsBinaryPath(p) {
			t.Errorf("IsBinaryPath(%q) = true, want false", p)
		}
	}
}

// =============================================================================
// RecordSet Tests
// =============================================================================

func TestRecordSet_ByProjectPath(t *testing.T) {
	parser := NewParser("0.80.0", nil)
	records := parser.Parse(sampleDiff)
	set := NewRecordSet(records)

	rec, ok := set.ByProjectPath("package.json")
	if !ok {
		t.Fatal("ByProjectPath(package.json) not found")
	}
	if rec.Path != "RnDiffApp/package.json" {
		t.Errorf("resolved wrong record: %q", rec.Path)
	}

	if _, ok := set.ByProjectPath("does/not/exist.txt"); ok {
		t.Error("ByProjectPath() found a record that does not exist")
	}
}

func TestFileRecord_ProjectPath(t *testing.T) {
	rec := &FileRecord{Path: "RnDiffApp/ios/Podfile"}
	if got := rec.ProjectPath(); got != "ios/Podfile" {
		t.Errorf("ProjectPath() = %q, want ios/Podfile", got)
	}
}
