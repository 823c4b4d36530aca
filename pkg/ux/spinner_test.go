// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"errors"
	"strings"
	"testing"
)

func TestSpinner_PlainMode(t *testing.T) {
	prev := GetMode()
	SetMode(ModePlain)
	defer SetMode(prev)

	out := captureStdout(func() {
		spin := NewSpinner("Downloading release diff")
		spin.Start()
		spin.Stop()
	})

	if out != "PROGRESS: Downloading release diff\n" {
		t.Errorf("plain mode output = %q", out)
	}
}

func TestSpinner_StartIdempotent(t *testing.T) {
	prev := GetMode()
	SetMode(ModePlain)
	defer SetMode(prev)

	out := captureStdout(func() {
		spin := NewSpinner("working")
		spin.Start()
		spin.Start()
		spin.Stop()
		spin.Stop()
	})

	if strings.Count(out, "PROGRESS:") != 1 {
		t.Errorf("repeated Start() printed more than once: %q", out)
	}
}

func TestWithSpinner_Success(t *testing.T) {
	prev := GetMode()
	SetMode(ModePlain)
	defer SetMode(prev)

	var ran bool
	out := captureStdout(func() {
		err := WithSpinner("Fetching assets", func() error {
			ran = true
			return nil
		})
		if err != nil {
			t.Errorf("WithSpinner() = %v", err)
		}
	})

	if !ran {
		t.Error("wrapped function never ran")
	}
	if !strings.Contains(out, "OK: Fetching assets") {
		t.Errorf("output = %q", out)
	}
}

func TestWithSpinner_Error(t *testing.T) {
	prev := GetMode()
	SetMode(ModePlain)
	defer SetMode(prev)

	wantErr := errors.New("connection refused")
	errOut := captureStderr(func() {
		captureStdout(func() {
			if err := WithSpinner("Fetching assets", func() error { return wantErr }); !errors.Is(err, wantErr) {
				t.Errorf("WithSpinner() = %v, want the wrapped error", err)
			}
		})
	})

	if !strings.Contains(errOut, "connection refused") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestProgressSpinner_Increment(t *testing.T) {
	prev := GetMode()
	SetMode(ModePlain)
	defer SetMode(prev)

	captureStdout(func() {
		spin := NewProgressSpinner("Replacing binaries", 3)
		spin.Start()
		spin.Increment()
		spin.Increment()

		spin.mu.Lock()
		msg := spin.message
		spin.mu.Unlock()
		if msg != "Replacing binaries [2/3]" {
			t.Errorf("message = %q", msg)
		}
		spin.Stop()
	})
}
