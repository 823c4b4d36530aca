// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/rnmigrate/services/migrator/classify"
	"github.com/AleutianAI/rnmigrate/services/migrator/diff"
)

func TestAnalyzer_Analyze_NativeBootstrap(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	rec := &diff.FileRecord{
		Path:   "RnDiffApp/android/app/src/main/java/com/rndiffapp/MainApplication.kt",
		Status: diff.StatusModified,
		Content: `-    override fun onCreate() {
-      super.onCreate()
-      SoLoader.init(this, OpenSourceMergedSoMapping)
+    override fun onCreate() {
+      super.onCreate()
+      loadReactNative(this)
`,
	}

	analysis := analyzer.Analyze([]*diff.FileRecord{rec})
	require.Len(t, analysis.Changes, 1)

	change := analysis.Changes[0]
	assert.Equal(t, classify.CategoryNativeCode, change.Type)
	assert.Equal(t, SeverityCritical, change.Severity)
	assert.True(t, change.RequiresMigration)
	assert.Len(t, change.BreakingChanges, 2)
	assert.Equal(t, "native_code:"+rec.Path, change.ID)
}

func TestAnalyzer_Analyze_BootstrapWithoutMarker(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	// Same file, but without the new initialization call: the weaker
	// bootstrap pattern applies.
	rec := &diff.FileRecord{
		Path:    "RnDiffApp/android/app/src/main/java/com/rndiffapp/MainApplication.kt",
		Status:  diff.StatusModified,
		Content: "+    // formatting only\n",
	}

	analysis := analyzer.Analyze([]*diff.FileRecord{rec})
	require.Len(t, analysis.Changes, 1)

	change := analysis.Changes[0]
	assert.Equal(t, SeverityHigh, change.Severity)
	assert.True(t, change.RequiresMigration)
	assert.Len(t, change.BreakingChanges, 1)
}

func TestAnalyzer_Analyze_KotlinVersionBump(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	rec := &diff.FileRecord{
		Path:   "RnDiffApp/android/build.gradle",
		Status: diff.StatusModified,
		Content: `-        kotlinVersion = "1.9.24"
+        kotlinVersion = "2.0.21"
`,
	}

	analysis := analyzer.Analyze([]*diff.FileRecord{rec})
	require.Len(t, analysis.Changes, 1)

	change := analysis.Changes[0]
	assert.Equal(t, classify.CategoryBuildSystem, change.Type)
	assert.Equal(t, SeverityHigh, change.Severity)
	assert.True(t, change.RequiresMigration)
	require.Len(t, change.BreakingChanges, 1)
	assert.Contains(t, change.BreakingChanges[0], "Kotlin")
}

func TestAnalyzer_Analyze_AppEntryRestructured(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	rec := &diff.FileRecord{
		Path:   "RnDiffApp/App.tsx",
		Status: diff.StatusModified,
		Content: `-import {Colors} from 'react-native/Libraries/NewAppScreen';
+import {NewAppScreen} from '@react-native/new-app-screen';
`,
	}

	analysis := analyzer.Analyze([]*diff.FileRecord{rec})
	require.Len(t, analysis.Changes, 1)

	change := analysis.Changes[0]
	assert.Equal(t, classify.CategorySourceCode, change.Type)
	assert.Equal(t, SeverityHigh, change.Severity)
	assert.NotEmpty(t, change.BreakingChanges)
}

func TestAnalyzer_Analyze_GenericFallback(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	tests := []struct {
		name     string
		rec      *diff.FileRecord
		wantType classify.Category
		wantSev  Severity
		wantMig  bool
	}{
		{
			name:     "plain source file",
			rec:      &diff.FileRecord{Path: "RnDiffApp/index.js", Status: diff.StatusModified},
			wantType: classify.CategorySourceCode,
			wantSev:  SeverityMedium,
			wantMig:  true,
		},
		{
			name:     "plain config file",
			rec:      &diff.FileRecord{Path: "RnDiffApp/.watchmanconfig", Status: diff.StatusModified},
			wantType: classify.CategoryConfiguration,
			wantSev:  SeverityLow,
			wantMig:  false,
		},
		{
			name:     "binary asset",
			rec:      &diff.FileRecord{Path: "RnDiffApp/android/app/debug.keystore", Status: diff.StatusBinary, IsBinary: true},
			wantType: classify.CategoryBinary,
			wantSev:  SeverityLow,
			wantMig:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := analyzer.Analyze([]*diff.FileRecord{tt.rec})
			require.Len(t, analysis.Changes, 1)

			change := analysis.Changes[0]
			assert.Equal(t, tt.wantType, change.Type)
			assert.Equal(t, tt.wantSev, change.Severity)
			assert.Equal(t, tt.wantMig, change.RequiresMigration)
			assert.Contains(t, change.Description, string(tt.wantType))
		})
	}
}

func TestAnalyzer_Analyze_SkippedPaths(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	records := []*diff.FileRecord{
		{Path: "RnDiffApp/README.md", Status: diff.StatusModified},
		{Path: "RnDiffApp/package.json", Status: diff.StatusModified},
		{Path: "RnDiffApp/notes.txt", Status: diff.StatusModified},
	}

	analysis := analyzer.Analyze(records)
	assert.Len(t, analysis.Changes, 1)
	assert.Equal(t, []string{"RnDiffApp/README.md", "RnDiffApp/notes.txt"}, analysis.Skipped)
}

func TestAnalyzer_Analyze_Deterministic(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	records := []*diff.FileRecord{
		{Path: "RnDiffApp/package.json", Status: diff.StatusModified},
		{Path: "RnDiffApp/App.tsx", Status: diff.StatusModified, Content: "+NewAppScreen\n"},
	}

	first := analyzer.Analyze(records)
	second := analyzer.Analyze(records)
	require.Equal(t, len(first.Changes), len(second.Changes))
	for i := range first.Changes {
		assert.Equal(t, first.Changes[i].ID, second.Changes[i].ID)
		assert.Equal(t, first.Changes[i].Severity, second.Changes[i].Severity)
	}
}

func TestAnalysis_BreakingCount(t *testing.T) {
	analysis := &Analysis{
		Changes: []*ComplexChange{
			{BreakingChanges: []string{"a", "b"}},
			{},
			{BreakingChanges: []string{"c"}},
		},
	}
	assert.Equal(t, 3, analysis.BreakingCount())
}

func TestSeverity_AtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
	assert.True(t, SeverityMedium.AtLeast(SeverityLow))
}
