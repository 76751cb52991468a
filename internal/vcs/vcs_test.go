package vcs

import "testing"

func TestSanitizeRefForPath(t *testing.T) {
	cases := map[string]string{
		"feature/login": "feature_login",
		"main":          "main",
		"a:b\\c":        "a_b_c",
	}
	for in, want := range cases {
		if got := sanitizeRefForPath(in); got != want {
			t.Fatalf("sanitizeRefForPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDetectRenamesPairsMatchingBlobs(t *testing.T) {
	added := []changeEntry{{path: "new/handler.go", blob: "abc"}, {path: "fresh.go", blob: "zzz"}}
	deleted := []changeEntry{{path: "old/handler.go", blob: "abc"}}

	changes := detectRenames(added, deleted)

	var renamed, addedOnly int
	for _, c := range changes {
		switch c.Kind {
		case Renamed:
			renamed++
			if c.Path != "new/handler.go" || c.OldPath != "old/handler.go" {
				t.Fatalf("unexpected rename: %+v", c)
			}
		case Added:
			addedOnly++
		}
	}
	if renamed != 1 || addedOnly != 1 {
		t.Fatalf("expected 1 rename and 1 plain add, got renamed=%d added=%d (%+v)", renamed, addedOnly, changes)
	}
}

func TestDetectRenamesLeavesUnmatchedDeleteAsDeleted(t *testing.T) {
	deleted := []changeEntry{{path: "gone.go", blob: "111"}}
	changes := detectRenames(nil, deleted)
	if len(changes) != 1 || changes[0].Kind != Deleted || changes[0].Path != "gone.go" {
		t.Fatalf("expected unmatched delete to remain Deleted, got %+v", changes)
	}
}

func TestDetectNoRepo(t *testing.T) {
	a, err := Detect(t.TempDir())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if a != nil {
		t.Fatalf("expected nil adapter for a directory with no .git, got %+v", a)
	}
}
